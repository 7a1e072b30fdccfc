// Package pipeline holds the outer control loop: collect a window of pages,
// mirror it, persist it, advance the cursor, stop on exhaustion or the page
// ceiling.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/veldrane/cinesync/pkg/catalog"
	"github.com/veldrane/cinesync/pkg/store"
)

// State is the driver's position in its run.
type State string

const (
	StateRunning        State = "RUNNING"
	StateExhausted      State = "EXHAUSTED"
	StateCeilingReached State = "CEILING_REACHED"
	StateDone           State = "DONE"
)

// Collector assembles one batch from a contiguous page window.
type Collector interface {
	Collect(ctx context.Context, startPage, batchSize int) (catalog.Batch, error)
}

// Mirror appends a batch to the flat-file copy.
type Mirror interface {
	Append(items []catalog.Movie) error
}

// Persister writes a batch into the relational store.
type Persister interface {
	Persist(ctx context.Context, items []catalog.Movie) (store.Result, error)
}

// Report summarizes a completed (or aborted) run.
type Report struct {
	Batches   int
	Mirrored  int
	Inserted  int
	Skipped   int
	NewGenres int
	LastPage  int   // last page the cursor covered
	Outcome   State // EXHAUSTED or CEILING_REACHED on success
	Final     State
}

// Driver runs batches until the catalog is exhausted or the page ceiling is
// reached. There is no whole-pipeline retry; retries live inside the
// fetcher, per page.
type Driver struct {
	collector Collector
	mirror    Mirror
	persister Persister

	maxPages      int
	pagesPerBatch int
	logger        *slog.Logger
}

// NewDriver wires the three stages together.
func NewDriver(
	collector Collector,
	mirror Mirror,
	persister Persister,
	maxPages, pagesPerBatch int,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		collector:     collector,
		mirror:        mirror,
		persister:     persister,
		maxPages:      maxPages,
		pagesPerBatch: pagesPerBatch,
		logger:        logger,
	}
}

// Run executes the pipeline once. A persistence or mirror failure aborts the
// run with the partial report and the error; both terminal states end it
// successfully with Final == DONE.
func (d *Driver) Run(ctx context.Context) (Report, error) {
	report := Report{Outcome: StateRunning, Final: StateRunning}
	page := 1
	state := StateRunning

	for state == StateRunning {
		d.logger.Info("processing batch", "start_page", page, "pages", d.pagesPerBatch)

		batch, err := d.collector.Collect(ctx, page, d.pagesPerBatch)
		if err != nil {
			return report, err
		}

		if len(batch.Items) == 0 {
			state = StateExhausted
			break
		}

		if err := d.mirror.Append(batch.Items); err != nil {
			return report, err
		}
		report.Mirrored += len(batch.Items)

		res, err := d.persister.Persist(ctx, batch.Items)
		if err != nil {
			return report, err
		}
		report.Batches++
		report.Inserted += res.Inserted
		report.Skipped += res.Skipped
		report.NewGenres += res.NewGenres
		report.LastPage = page + d.pagesPerBatch - 1

		page += d.pagesPerBatch

		switch {
		case batch.Exhausted:
			state = StateExhausted
		case page > d.maxPages:
			state = StateCeilingReached
		}
	}

	report.Outcome = state
	report.Final = StateDone
	d.logger.Info("pipeline completed",
		"outcome", string(state),
		"batches", report.Batches,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
	)
	return report, nil
}
