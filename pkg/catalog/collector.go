package catalog

import (
	"context"
	"log/slog"
)

// PageFetcher is the seam the Collector drives. Satisfied by *Fetcher.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (PageResult, error)
}

// Batch is the items collected from one contiguous page window. Exhausted is
// set when a page inside the window returned the catalog's end-of-data
// marker; the driver must not start another window after that.
type Batch struct {
	Items     []Movie
	Exhausted bool
}

// Collector walks a contiguous range of pages and assembles one batch.
type Collector struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewCollector builds a Collector over the given fetcher.
func NewCollector(fetcher PageFetcher, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{fetcher: fetcher, logger: logger}
}

// Collect fetches pages startPage .. startPage+batchSize-1 in order.
// Abandoned pages are omitted and collection continues; an empty page ends
// the window immediately with whatever has been accumulated. The error is
// non-nil only on context cancellation.
func (c *Collector) Collect(ctx context.Context, startPage, batchSize int) (Batch, error) {
	var batch Batch

	for page := startPage; page < startPage+batchSize; page++ {
		c.logger.Info("fetching page", "page", page)

		res, err := c.fetcher.FetchPage(ctx, page)
		if err != nil {
			return batch, err
		}

		switch res.Status {
		case PageEmpty:
			batch.Exhausted = true
			return batch, nil
		case PageAbandoned:
			continue
		case PageFetched:
			batch.Items = append(batch.Items, res.Items...)
		}
	}

	return batch, nil
}
