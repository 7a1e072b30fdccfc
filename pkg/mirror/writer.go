// Package mirror maintains the append-only flat-file copy of ingested items.
// The mirror is deliberately dumb: it never reads back or deduplicates, so
// re-ingested pages produce duplicate rows. The relational store is the
// source of truth for dedup.
package mirror

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/veldrane/cinesync/pkg/catalog"
	"github.com/veldrane/cinesync/pkg/errors"
)

// columns is the fixed 8-column mirror schema.
var columns = []string{
	"id", "title", "overview", "release_date",
	"vote_average", "vote_count", "popularity", "genre_ids",
}

// Writer appends batches to one CSV destination.
type Writer struct {
	path string
}

// NewWriter builds a Writer for the given path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the destination path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one row per item, creating the file with its header when it
// does not exist yet. The header is written exactly once per destination
// regardless of how many batches follow.
func (w *Writer) Append(items []catalog.Movie) error {
	if err := w.ensureHeader(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WrapError(err, errors.ErrMirror, "open mirror for append")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	for _, m := range items {
		if err := cw.Write(row(m)); err != nil {
			return errors.WrapError(err, errors.ErrMirror, "write mirror row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapError(err, errors.ErrMirror, "flush mirror rows")
	}
	if err := f.Sync(); err != nil {
		return errors.WrapError(err, errors.ErrMirror, "sync mirror")
	}
	return nil
}

// ensureHeader creates the file with the header row when the destination is
// missing or empty.
func (w *Writer) ensureHeader() error {
	fi, err := os.Stat(w.path)
	if err == nil && fi.Size() > 0 {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.WrapError(err, errors.ErrMirror, "create mirror")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return errors.WrapError(err, errors.ErrMirror, "write mirror header")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapError(err, errors.ErrMirror, "flush mirror header")
	}
	if err := f.Sync(); err != nil {
		return errors.WrapError(err, errors.ErrMirror, "sync mirror header")
	}
	return nil
}

// row renders one item in mirror column order. Release dates go out exactly
// as the catalog sent them; nil optionals render empty.
func row(m catalog.Movie) []string {
	genreIDs := make([]string, 0, len(m.GenreIDs))
	for _, id := range m.GenreIDs {
		genreIDs = append(genreIDs, strconv.FormatInt(id, 10))
	}

	return []string{
		strconv.FormatInt(m.ID, 10),
		strOrEmpty(m.Title),
		strOrEmpty(m.Overview),
		strOrEmpty(m.ReleaseDate),
		floatOrEmpty(m.VoteAverage),
		intOrEmpty(m.VoteCount),
		floatOrEmpty(m.Popularity),
		strings.Join(genreIDs, ","),
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func intOrEmpty(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}
