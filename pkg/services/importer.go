package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/apperrors"
	"github.com/cinelog/cinelog-engine/pkg/mediaid"
	"github.com/cinelog/cinelog-engine/pkg/models"
	"github.com/cinelog/cinelog-engine/pkg/repositories"
)

// ImportService defines the interface for the watched-movie import pipeline.
type ImportService interface {
	// Import processes one submission: existence check, identity
	// resolution, commit. The outcome is terminal for this invocation;
	// resubmitting the same source URI later is safe and idempotent.
	// A non-nil error (store or transport breakage) accompanies
	// ResultFailed and means the submission was not judged, only
	// interrupted.
	Import(ctx context.Context, req models.ImportRequest) (models.ImportResult, error)
}

// importService implements ImportService.
type importService struct {
	repo       repositories.WatchedMovieRepository
	identifier mediaid.Identifier
	logger     *zap.Logger
}

// NewImportService creates a new import service with dependencies.
func NewImportService(repo repositories.WatchedMovieRepository, identifier mediaid.Identifier, logger *zap.Logger) ImportService {
	return &importService{
		repo:       repo,
		identifier: identifier,
		logger:     logger.Named("importer"),
	}
}

// Import runs the pipeline for one submission.
func (s *importService) Import(ctx context.Context, req models.ImportRequest) (models.ImportResult, error) {
	s.logger.Info("Processing submission",
		zap.String("title", req.Title),
		zap.Int("year", req.Year),
		zap.String("source_uri", req.SourceURI))

	exists, err := s.repo.Exists(ctx, req.SourceURI)
	if err != nil {
		return models.ResultFailed, fmt.Errorf("failed to check for existing entry: %w", err)
	}
	if exists {
		s.logger.Debug("Entry already exists", zap.String("source_uri", req.SourceURI))
		return models.ResultAlreadyExists, nil
	}

	identity, err := s.identifier.Identify(ctx, req.Title, req.Year, mediaid.MediaTypeMovie)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Could not identify movie, needs a later retry",
				zap.String("title", req.Title),
				zap.Int("year", req.Year))
			return models.ResultFailed, nil
		}
		return models.ResultFailed, err
	}

	// The resolved identity is authoritative: the committed record uses
	// the canonical title, year and genres, never the raw submission.
	movie := &models.WatchedMovie{
		SourceURI:   req.SourceURI,
		WatchDate:   req.WatchDate,
		Title:       identity.Title,
		ReleaseYear: identity.Year,
		Genres:      identity.Genres,
		CacheID:     identity.CacheID,
	}

	if err := s.repo.Insert(ctx, movie); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost the race against a concurrent import of the same URI.
			s.logger.Debug("Concurrent import won the insert",
				zap.String("source_uri", req.SourceURI))
			return models.ResultAlreadyExists, nil
		}
		return models.ResultFailed, fmt.Errorf("failed to insert entry: %w", err)
	}

	s.logger.Info("Successfully inserted entry",
		zap.String("source_uri", req.SourceURI),
		zap.String("cache_id", identity.CacheID.String()))
	return models.ResultSuccess, nil
}

// Ensure importService implements ImportService at compile time.
var _ ImportService = (*importService)(nil)
