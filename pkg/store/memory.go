package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. It backs dry runs (no database touched) and
// tests. Commit semantics match the postgres store: a batch lands whole or
// not at all.
type Memory struct {
	mu     sync.Mutex
	movies map[int64]MovieRecord
	genres map[int64]GenreRecord
	assocs map[Association]struct{}
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		movies: make(map[int64]MovieRecord),
		genres: make(map[int64]GenreRecord),
		assocs: make(map[Association]struct{}),
	}
}

// Acquire returns a session over the shared maps.
func (m *Memory) Acquire(ctx context.Context) (Session, error) {
	return &memSession{store: m}, nil
}

// MovieCount reports the number of stored primary records.
func (m *Memory) MovieCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.movies)
}

// GenreCount reports the number of stored genres.
func (m *Memory) GenreCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.genres)
}

// AssociationCount reports the number of stored movie-genre pairs.
func (m *Memory) AssociationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assocs)
}

// Movie returns a stored record by id.
func (m *Memory) Movie(id int64) (MovieRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.movies[id]
	return rec, ok
}

// Genre returns a stored genre by id.
func (m *Memory) Genre(id int64) (GenreRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.genres[id]
	return g, ok
}

// HasAssociation reports whether a movie-genre pair exists.
func (m *Memory) HasAssociation(movieID, genreID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assocs[Association{MovieID: movieID, GenreID: genreID}]
	return ok
}

type memSession struct {
	store *Memory
}

func (s *memSession) Genres(ctx context.Context) ([]GenreRecord, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]GenreRecord, 0, len(s.store.genres))
	for _, g := range s.store.genres {
		out = append(out, g)
	}
	return out, nil
}

func (s *memSession) ExistingMovieIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make(map[int64]struct{})
	for _, id := range ids {
		if _, ok := s.store.movies[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *memSession) CommitBatch(ctx context.Context, staged *StagedBatch) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, g := range staged.Genres {
		if _, ok := s.store.genres[g.ID]; !ok {
			s.store.genres[g.ID] = g
		}
	}
	for _, m := range staged.Movies {
		if _, ok := s.store.movies[m.ID]; !ok {
			s.store.movies[m.ID] = m
		}
	}
	for _, a := range staged.Associations {
		s.store.assocs[a] = struct{}{}
	}
	return nil
}

func (s *memSession) Close(ctx context.Context) error {
	return nil
}
