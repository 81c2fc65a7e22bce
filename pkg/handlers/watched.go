package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/models"
	"github.com/cinelog/cinelog-engine/pkg/services"
)

// WatchedMovieRequest is the body of POST /api/watched.
type WatchedMovieRequest struct {
	Title     string `json:"title"`
	WatchDate string `json:"watch_date"`
	Year      int    `json:"year"`
	SourceURI string `json:"source_uri"`
}

// WatchedMovieResponse echoes the submitted movie back to the caller.
type WatchedMovieResponse struct {
	Result string           `json:"result"`
	Data   WatchedMovieData `json:"data"`
	Error  string           `json:"error,omitempty"`
}

// WatchedMovieData identifies the movie a response refers to.
type WatchedMovieData struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// WatchedHandler handles watched-movie submissions.
type WatchedHandler struct {
	importer services.ImportService
	logger   *zap.Logger
}

// NewWatchedHandler creates a new watched-movie handler.
func NewWatchedHandler(importer services.ImportService, logger *zap.Logger) *WatchedHandler {
	return &WatchedHandler{
		importer: importer,
		logger:   logger,
	}
}

// RegisterRoutes registers the watched handler's routes on the given mux.
func (h *WatchedHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/watched", h.Watched)
}

// Watched handles POST /api/watched.
func (h *WatchedHandler) Watched(w http.ResponseWriter, r *http.Request) {
	var req WatchedMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	watchDate, err := validateRequest(&req)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.logger.Info("Received watched-movie request",
		zap.String("title", req.Title),
		zap.Int("year", req.Year),
		zap.String("remote_addr", r.RemoteAddr))

	data := WatchedMovieData{Title: req.Title, Year: req.Year}

	result, err := h.importer.Import(r.Context(), models.ImportRequest{
		SourceURI: req.SourceURI,
		Title:     req.Title,
		Year:      req.Year,
		WatchDate: watchDate,
	})
	if err != nil {
		h.logger.Error("Error processing watched-movie request",
			zap.String("title", req.Title),
			zap.Int("year", req.Year),
			zap.Error(err))
		h.writeResult(w, http.StatusInternalServerError, WatchedMovieResponse{
			Result: "error",
			Data:   data,
			Error:  err.Error(),
		})
		return
	}

	switch result {
	case models.ResultSuccess:
		h.writeResult(w, http.StatusCreated, WatchedMovieResponse{Result: "success", Data: data})
	case models.ResultAlreadyExists:
		h.writeResult(w, http.StatusOK, WatchedMovieResponse{Result: "already_exists", Data: data})
	default:
		h.logger.Error("Could not import movie",
			zap.String("title", req.Title),
			zap.Int("year", req.Year))
		h.writeResult(w, http.StatusInternalServerError, WatchedMovieResponse{Result: "error", Data: data})
	}
}

func (h *WatchedHandler) writeResult(w http.ResponseWriter, statusCode int, resp WatchedMovieResponse) {
	if err := WriteJSON(w, statusCode, resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// validateRequest checks the request boundary contract and parses the
// watch date. The year bounds here are deliberately stricter than the
// schema's check constraint; the two layers are independent.
func validateRequest(req *WatchedMovieRequest) (time.Time, error) {
	if strings.TrimSpace(req.Title) == "" {
		return time.Time{}, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(req.SourceURI) == "" {
		return time.Time{}, fmt.Errorf("source_uri is required")
	}
	if req.Year <= 1900 || req.Year >= 2100 {
		return time.Time{}, fmt.Errorf("year must be between 1900 and 2100 (exclusive)")
	}
	if strings.TrimSpace(req.WatchDate) == "" {
		return time.Time{}, fmt.Errorf("watch_date is required")
	}

	watchDate, err := time.Parse(time.RFC3339, req.WatchDate)
	if err != nil {
		watchDate, err = time.Parse("2006-01-02", req.WatchDate)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("watch_date must be RFC3339 or YYYY-MM-DD")
	}

	return watchDate, nil
}
