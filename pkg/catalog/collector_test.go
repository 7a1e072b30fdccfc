package catalog

import (
	"context"
	"testing"
)

// scriptedFetcher replays canned page results keyed by page number.
type scriptedFetcher struct {
	pages   map[int]PageResult
	fetched []int
}

func (s *scriptedFetcher) FetchPage(ctx context.Context, page int) (PageResult, error) {
	s.fetched = append(s.fetched, page)
	if res, ok := s.pages[page]; ok {
		return res, nil
	}
	return PageResult{Status: PageEmpty}, nil
}

func fetchedPage(ids ...int64) PageResult {
	items := make([]Movie, 0, len(ids))
	for _, id := range ids {
		items = append(items, Movie{ID: id})
	}
	return PageResult{Status: PageFetched, Items: items}
}

func TestCollector_FullWindow(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[int]PageResult{
		1: fetchedPage(1, 2),
		2: fetchedPage(3, 4),
		3: fetchedPage(5, 6),
	}}

	c := NewCollector(fetcher, nil)
	batch, err := c.Collect(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.Exhausted {
		t.Fatal("full window must not be exhausted")
	}
	if len(batch.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(batch.Items))
	}
	// Per-page fetch order preserved.
	for i, want := range []int64{1, 2, 3, 4, 5, 6} {
		if batch.Items[i].ID != want {
			t.Errorf("item %d: expected id %d, got %d", i, want, batch.Items[i].ID)
		}
	}
}

func TestCollector_StopsOnEmptyPage(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[int]PageResult{
		5: fetchedPage(1),
		6: fetchedPage(2),
		7: {Status: PageEmpty},
		8: fetchedPage(99), // must never be fetched
	}}

	c := NewCollector(fetcher, nil)
	batch, err := c.Collect(context.Background(), 5, 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !batch.Exhausted {
		t.Fatal("empty page must mark the batch exhausted")
	}
	if len(batch.Items) != 2 {
		t.Fatalf("expected items from pages before the empty one, got %d", len(batch.Items))
	}
	for _, p := range fetcher.fetched {
		if p >= 8 {
			t.Errorf("page %d fetched after exhaustion", p)
		}
	}
}

func TestCollector_SkipsAbandonedPages(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[int]PageResult{
		1: fetchedPage(1),
		2: {Status: PageAbandoned},
		3: fetchedPage(3),
	}}

	c := NewCollector(fetcher, nil)
	batch, err := c.Collect(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.Exhausted {
		t.Fatal("abandoned page must not look like exhaustion")
	}
	if len(batch.Items) != 2 {
		t.Fatalf("expected 2 items around the skipped page, got %d", len(batch.Items))
	}
	if batch.Items[0].ID != 1 || batch.Items[1].ID != 3 {
		t.Errorf("unexpected items: %+v", batch.Items)
	}
}

func TestCollector_EmptyFirstPage(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[int]PageResult{
		1: {Status: PageEmpty},
	}}

	c := NewCollector(fetcher, nil)
	batch, err := c.Collect(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !batch.Exhausted || len(batch.Items) != 0 {
		t.Fatalf("expected empty exhausted batch, got %d items exhausted=%v",
			len(batch.Items), batch.Exhausted)
	}
}
