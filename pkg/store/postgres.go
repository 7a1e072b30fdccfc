package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Postgres is the relational store handle. It holds no live connection;
// every Acquire dials fresh so connection lifetime stays scoped to one
// batch.
type Postgres struct {
	dsn string
}

// NewPostgres builds a store handle for the given DSN.
func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn}
}

// EnsureSchema creates the three tables when they are missing. Safe to call
// on every start.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS movies (
			id            BIGINT PRIMARY KEY,
			title         TEXT,
			overview      TEXT,
			release_date  DATE,
			vote_average  DOUBLE PRECISION,
			vote_count    BIGINT,
			popularity    DOUBLE PRECISION
		);
		CREATE TABLE IF NOT EXISTS genres (
			genre_id    BIGINT PRIMARY KEY,
			genre_name  TEXT
		);
		CREATE TABLE IF NOT EXISTS movies_genres (
			movie_id  BIGINT NOT NULL REFERENCES movies (id),
			genre_id  BIGINT NOT NULL REFERENCES genres (genre_id),
			PRIMARY KEY (movie_id, genre_id)
		);
	`)
	return err
}

// Acquire dials a fresh connection for one batch.
func (p *Postgres) Acquire(ctx context.Context) (Session, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return nil, err
	}
	return &pgSession{conn: conn}, nil
}

// pgSession is one batch-scoped connection.
type pgSession struct {
	conn *pgx.Conn
}

func (s *pgSession) Genres(ctx context.Context) ([]GenreRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT genre_id, COALESCE(genre_name, '') FROM genres`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenreRecord
	for rows.Next() {
		var g GenreRecord
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *pgSession) ExistingMovieIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.conn.Query(ctx, `SELECT id FROM movies WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// CommitBatch writes staged genres, movies and associations in one
// transaction. Queue order matters: associations reference both other
// tables. ON CONFLICT DO NOTHING keeps replays harmless even if the
// skip-existing pass missed a row.
func (s *pgSession) CommitBatch(ctx context.Context, staged *StagedBatch) error {
	if len(staged.Movies) == 0 && len(staged.Genres) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, g := range staged.Genres {
		b.Queue(
			`INSERT INTO genres (genre_id, genre_name) VALUES ($1, $2)
			 ON CONFLICT (genre_id) DO NOTHING`,
			g.ID, g.Name,
		)
	}
	for _, m := range staged.Movies {
		b.Queue(
			`INSERT INTO movies
			 (id, title, overview, release_date, vote_average, vote_count, popularity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			m.ID, m.Title, m.Overview, m.ReleaseDate, m.VoteAverage, m.VoteCount, m.Popularity,
		)
	}
	for _, a := range staged.Associations {
		b.Queue(
			`INSERT INTO movies_genres (movie_id, genre_id) VALUES ($1, $2)
			 ON CONFLICT (movie_id, genre_id) DO NOTHING`,
			a.MovieID, a.GenreID,
		)
	}

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *pgSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
