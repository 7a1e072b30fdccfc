package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/veldrane/cinesync/pkg/catalog"
	"github.com/veldrane/cinesync/pkg/store"
)

// fakeCollector serves scripted batches keyed by start page.
type fakeCollector struct {
	batches map[int]catalog.Batch
	calls   []int
}

func (f *fakeCollector) Collect(ctx context.Context, startPage, batchSize int) (catalog.Batch, error) {
	f.calls = append(f.calls, startPage)
	if b, ok := f.batches[startPage]; ok {
		return b, nil
	}
	return catalog.Batch{Exhausted: true}, nil
}

type fakeMirror struct {
	rows int
	err  error
}

func (f *fakeMirror) Append(items []catalog.Movie) error {
	if f.err != nil {
		return f.err
	}
	f.rows += len(items)
	return nil
}

type fakePersister struct {
	persisted int
	err       error
}

func (f *fakePersister) Persist(ctx context.Context, items []catalog.Movie) (store.Result, error) {
	if f.err != nil {
		return store.Result{}, f.err
	}
	f.persisted += len(items)
	return store.Result{Inserted: len(items)}, nil
}

func movies(n int, firstID int64) []catalog.Movie {
	out := make([]catalog.Movie, n)
	for i := range out {
		out[i] = catalog.Movie{ID: firstID + int64(i)}
	}
	return out
}

func TestDriver_ExhaustionStopsRun(t *testing.T) {
	// Pages 1-5 full, window starting at page 6 hits the empty catalog.
	collector := &fakeCollector{batches: map[int]catalog.Batch{
		1: {Items: movies(100, 1)},
	}}
	mirror := &fakeMirror{}
	persister := &fakePersister{}

	d := NewDriver(collector, mirror, persister, 100, 5, nil)
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.Outcome != StateExhausted {
		t.Errorf("expected EXHAUSTED, got %s", report.Outcome)
	}
	if report.Final != StateDone {
		t.Errorf("expected final DONE, got %s", report.Final)
	}
	if report.Inserted != 100 {
		t.Errorf("expected 100 inserted, got %d", report.Inserted)
	}
	if len(collector.calls) != 2 || collector.calls[0] != 1 || collector.calls[1] != 6 {
		t.Errorf("unexpected collect calls: %v", collector.calls)
	}
}

func TestDriver_MidWindowExhaustionPersistsPartialBatch(t *testing.T) {
	collector := &fakeCollector{batches: map[int]catalog.Batch{
		1: {Items: movies(40, 1), Exhausted: true},
	}}
	mirror := &fakeMirror{}
	persister := &fakePersister{}

	d := NewDriver(collector, mirror, persister, 100, 5, nil)
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.Outcome != StateExhausted {
		t.Errorf("expected EXHAUSTED, got %s", report.Outcome)
	}
	if persister.persisted != 40 {
		t.Errorf("partial batch must still persist, got %d", persister.persisted)
	}
	// No second window after mid-window exhaustion.
	if len(collector.calls) != 1 {
		t.Errorf("expected a single collect call, got %v", collector.calls)
	}
}

func TestDriver_CeilingStopsRun(t *testing.T) {
	batches := map[int]catalog.Batch{}
	for p := 1; p <= 10; p += 5 {
		batches[p] = catalog.Batch{Items: movies(10, int64(p*100))}
	}
	collector := &fakeCollector{batches: batches}
	mirror := &fakeMirror{}
	persister := &fakePersister{}

	d := NewDriver(collector, mirror, persister, 10, 5, nil)
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.Outcome != StateCeilingReached {
		t.Errorf("expected CEILING_REACHED, got %s", report.Outcome)
	}
	if report.Batches != 2 {
		t.Errorf("expected 2 batches under a 10-page ceiling, got %d", report.Batches)
	}
	if len(collector.calls) != 2 {
		t.Errorf("cursor must stop at the ceiling, calls: %v", collector.calls)
	}
}

func TestDriver_PersistFailureAbortsRun(t *testing.T) {
	collector := &fakeCollector{batches: map[int]catalog.Batch{
		1: {Items: movies(5, 1)},
		6: {Items: movies(5, 6)},
	}}
	mirror := &fakeMirror{}
	persister := &fakePersister{err: errors.New("store unreachable")}

	d := NewDriver(collector, mirror, persister, 100, 5, nil)
	_, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if len(collector.calls) != 1 {
		t.Errorf("run must not continue past a failed batch, calls: %v", collector.calls)
	}
}

func TestDriver_MirrorFailureAbortsBeforePersist(t *testing.T) {
	collector := &fakeCollector{batches: map[int]catalog.Batch{
		1: {Items: movies(5, 1)},
	}}
	mirror := &fakeMirror{err: errors.New("disk full")}
	persister := &fakePersister{}

	d := NewDriver(collector, mirror, persister, 100, 5, nil)
	_, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected mirror failure to surface")
	}
	if persister.persisted != 0 {
		t.Errorf("persist must not run after a mirror failure, got %d", persister.persisted)
	}
}
