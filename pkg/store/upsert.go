package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veldrane/cinesync/pkg/catalog"
	"github.com/veldrane/cinesync/pkg/errors"
	"github.com/veldrane/cinesync/pkg/metrics"
)

// releaseDateLayout is the only accepted calendar date form.
const releaseDateLayout = "2006-01-02"

// Result summarizes one Persist call.
type Result struct {
	Inserted  int // new movie rows committed
	Skipped   int // items whose id already existed (or repeated in-batch)
	NewGenres int // genre rows created for first-seen ids
}

// Engine persists batches idempotently. It assumes single-writer execution:
// the genre cache only sees this process's staged creations, so two
// concurrent Persist calls over overlapping genre ids could race. The run
// lock in cmd enforces at most one instance.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// NewEngine builds an Engine over the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Persist writes one batch in a single transaction. Items whose id already
// exists are skipped entirely, including their associations. On any
// persistence failure the whole batch rolls back and the error surfaces as
// fatal for the batch.
func (e *Engine) Persist(ctx context.Context, items []catalog.Movie) (Result, error) {
	var res Result

	sess, err := e.store.Acquire(ctx)
	if err != nil {
		return res, errors.WrapError(err, errors.ErrPersistence, "acquire store session")
	}
	defer sess.Close(ctx)

	genreRows, err := sess.Genres(ctx)
	if err != nil {
		return res, errors.WrapError(err, errors.ErrPersistence, "preload genres")
	}
	genreCache := make(map[int64]GenreRecord, len(genreRows))
	for _, g := range genreRows {
		genreCache[g.ID] = g
	}

	ids := make([]int64, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.ID)
	}
	existing, err := sess.ExistingMovieIDs(ctx, ids)
	if err != nil {
		return res, errors.WrapError(err, errors.ErrPersistence, "check existing movies")
	}

	staged := &StagedBatch{}
	stagedIDs := make(map[int64]struct{}, len(items))

	for _, m := range items {
		if _, ok := existing[m.ID]; ok {
			res.Skipped++
			continue
		}
		if _, ok := stagedIDs[m.ID]; ok {
			// Same id twice inside one batch; first occurrence wins.
			res.Skipped++
			continue
		}

		staged.Movies = append(staged.Movies, buildRecord(m))
		stagedIDs[m.ID] = struct{}{}

		linked := make(map[int64]struct{}, len(m.GenreIDs))
		for _, gid := range m.GenreIDs {
			if _, ok := genreCache[gid]; !ok {
				g := GenreRecord{ID: gid, Name: fmt.Sprintf("Genre %d", gid)}
				genreCache[gid] = g
				staged.Genres = append(staged.Genres, g)
			}
			if _, ok := linked[gid]; ok {
				continue
			}
			linked[gid] = struct{}{}
			staged.Associations = append(staged.Associations, Association{
				MovieID: m.ID,
				GenreID: gid,
			})
		}
	}

	if err := sess.CommitBatch(ctx, staged); err != nil {
		return res, errors.WrapError(err, errors.ErrPersistence, "commit batch")
	}

	res.Inserted = len(staged.Movies)
	res.NewGenres = len(staged.Genres)
	metrics.MoviesInserted.Add(float64(res.Inserted))
	metrics.MoviesSkipped.Add(float64(res.Skipped))
	metrics.BatchesCommitted.Inc()

	e.logger.Info("batch committed",
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"new_genres", res.NewGenres,
	)
	return res, nil
}

// buildRecord maps a wire item onto a primary record, normalizing the
// release date and keeping absent optionals as NULL.
func buildRecord(m catalog.Movie) MovieRecord {
	return MovieRecord{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: parseReleaseDate(m.ReleaseDate),
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
		Popularity:  m.Popularity,
	}
}

// parseReleaseDate parses a strict YYYY-MM-DD date. Missing or malformed
// input becomes nil, never an error.
func parseReleaseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(releaseDateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
