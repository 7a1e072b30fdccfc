package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veldrane/cinesync/pkg/catalog"
)

// Integration test against a real database. Set CINESYNC_TEST_DSN to run,
// e.g. postgres://ingest:pw@localhost:5432/cinesync_test?sslmode=disable.
// Tables are created via EnsureSchema and rows accumulate; point it at a
// scratch database.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CINESYNC_TEST_DSN")
	if dsn == "" {
		t.Skip("CINESYNC_TEST_DSN not set")
	}
	return dsn
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pg := NewPostgres(testDSN(t))
	require.NoError(t, pg.EnsureSchema(ctx))

	engine := NewEngine(pg, nil)
	batch := []catalog.Movie{
		item(900001, "2024-03-03", 900010, 900011),
		item(900002, "not-a-date", 900010),
	}

	first, err := engine.Persist(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, first.Inserted)

	// Replay must be a no-op for the store.
	second, err := engine.Persist(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 0, second.Inserted)
	require.Equal(t, 2, second.Skipped)

	sess, err := pg.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close(ctx)

	existing, err := sess.ExistingMovieIDs(ctx, []int64{900001, 900002, 900003})
	require.NoError(t, err)
	require.Contains(t, existing, int64(900001))
	require.Contains(t, existing, int64(900002))
	require.NotContains(t, existing, int64(900003))

	genres, err := sess.Genres(ctx)
	require.NoError(t, err)
	found := map[int64]string{}
	for _, g := range genres {
		found[g.ID] = g.Name
	}
	require.Equal(t, "Genre 900010", found[900010])
}
