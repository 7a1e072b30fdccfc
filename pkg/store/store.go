// Package store persists batches into the relational store. The upsert
// engine is insert-if-absent throughout: existing movies are skipped whole,
// genres are created at most once, association pairs are never duplicated.
package store

import (
	"context"
	"time"
)

// MovieRecord is one persisted primary record. Immutable once inserted; the
// pipeline only ever skips known ids.
type MovieRecord struct {
	ID          int64
	Title       *string
	Overview    *string
	ReleaseDate *time.Time
	VoteAverage *float64
	VoteCount   *int64
	Popularity  *float64
}

// GenreRecord is one persisted category. Name is synthesized on first sight
// since the discover payload carries ids only.
type GenreRecord struct {
	ID   int64
	Name string
}

// Association links one movie to one genre. At most one row per pair.
type Association struct {
	MovieID int64
	GenreID int64
}

// StagedBatch holds everything one Persist call will commit in a single
// transaction.
type StagedBatch struct {
	Movies       []MovieRecord
	Genres       []GenreRecord
	Associations []Association
}

// Store hands out batch-scoped sessions. The postgres implementation opens a
// fresh connection per Acquire and the engine closes it when the batch is
// done; nothing is shared across batches or runs.
type Store interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is one batch-scoped view of the relational store.
type Session interface {
	// Genres loads every existing genre row.
	Genres(ctx context.Context) ([]GenreRecord, error)
	// ExistingMovieIDs reports which of the given ids are already present.
	ExistingMovieIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	// CommitBatch writes all staged rows in one transaction; on error
	// nothing is committed.
	CommitBatch(ctx context.Context, staged *StagedBatch) error
	// Close releases the session's connection.
	Close(ctx context.Context) error
}
