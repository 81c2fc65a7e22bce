package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchedMovie is one committed watched-movie record. Records are
// immutable once inserted; the source URI is the primary key.
type WatchedMovie struct {
	SourceURI   string    `json:"source_uri"`
	WatchDate   time.Time `json:"watch_date"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"release_year"`
	Genres      []string  `json:"genres,omitempty"`
	CacheID     uuid.UUID `json:"cache_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImportRequest is the raw input to one import pipeline invocation.
// It is never persisted as-is; the committed record uses the resolved
// canonical title and year, not these.
type ImportRequest struct {
	SourceURI string
	Title     string
	Year      int
	WatchDate time.Time
}

// ResolvedIdentity is the media-identifier service's answer for a
// (title, year) pair. Field values are authoritative over the raw
// request for everything they cover.
type ResolvedIdentity struct {
	Title   string    `json:"title"`
	Year    int       `json:"year"`
	Genres  []string  `json:"genres"`
	CacheID uuid.UUID `json:"id"`
}
