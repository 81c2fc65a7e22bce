package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cinelog/cinelog-engine/pkg/apperrors"
	"github.com/cinelog/cinelog-engine/pkg/database"
	"github.com/cinelog/cinelog-engine/pkg/models"
)

// WatchedMovieRepository defines the interface for watched-movie data access.
type WatchedMovieRepository interface {
	// Exists reports whether a record with the given source URI is committed.
	Exists(ctx context.Context, sourceURI string) (bool, error)
	// Insert atomically creates the record. Returns apperrors.ErrConflict
	// if the source URI is already present; concurrent imports of the
	// same URI are arbitrated here by the primary-key constraint, not by
	// application locking.
	Insert(ctx context.Context, movie *models.WatchedMovie) error
	// Get retrieves a record by source URI. Returns apperrors.ErrNotFound
	// if no record exists.
	Get(ctx context.Context, sourceURI string) (*models.WatchedMovie, error)
}

// watchedMovieRepository implements WatchedMovieRepository using PostgreSQL.
type watchedMovieRepository struct {
	db *database.DB
}

// NewWatchedMovieRepository creates a new watched-movie repository.
func NewWatchedMovieRepository(db *database.DB) WatchedMovieRepository {
	return &watchedMovieRepository{db: db}
}

// Exists reports whether a record with the given source URI is committed.
func (r *watchedMovieRepository) Exists(ctx context.Context, sourceURI string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM watched_movies WHERE source_uri = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, sourceURI).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check watched movie existence: %w", err)
	}

	return exists, nil
}

// Insert atomically creates a watched-movie record.
func (r *watchedMovieRepository) Insert(ctx context.Context, movie *models.WatchedMovie) error {
	movie.CreatedAt = time.Now()

	query := `
		INSERT INTO watched_movies (source_uri, watch_date, title, release_year, genres, cache_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		movie.SourceURI,
		movie.WatchDate,
		movie.Title,
		movie.ReleaseYear,
		movie.Genres,
		movie.CacheID,
		movie.CreatedAt,
	)
	if err != nil {
		// Unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to insert watched movie: %w", err)
	}

	return nil
}

// Get retrieves a watched-movie record by source URI.
func (r *watchedMovieRepository) Get(ctx context.Context, sourceURI string) (*models.WatchedMovie, error) {
	query := `
		SELECT source_uri, watch_date, title, release_year, genres, cache_id, created_at
		FROM watched_movies
		WHERE source_uri = $1`

	var movie models.WatchedMovie
	err := r.db.QueryRow(ctx, query, sourceURI).Scan(
		&movie.SourceURI,
		&movie.WatchDate,
		&movie.Title,
		&movie.ReleaseYear,
		&movie.Genres,
		&movie.CacheID,
		&movie.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get watched movie: %w", err)
	}

	return &movie, nil
}

// Ensure watchedMovieRepository implements WatchedMovieRepository at compile time.
var _ WatchedMovieRepository = (*watchedMovieRepository)(nil)
