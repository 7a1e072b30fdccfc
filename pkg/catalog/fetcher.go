package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/veldrane/cinesync/pkg/config"
	"github.com/veldrane/cinesync/pkg/errors"
	"github.com/veldrane/cinesync/pkg/metrics"
)

// HTTPError wraps HTTP error responses
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// PageStatus is the terminal state of one page attempt sequence.
type PageStatus int

const (
	// PageFetched means the page returned at least one item.
	PageFetched PageStatus = iota
	// PageEmpty means the catalog answered 200 with no results: definitive
	// end of data, not a failure.
	PageEmpty
	// PageAbandoned means every attempt failed transiently; the page
	// contributes nothing and collection moves on.
	PageAbandoned
)

func (s PageStatus) String() string {
	switch s {
	case PageFetched:
		return "fetched"
	case PageEmpty:
		return "empty"
	case PageAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// PageResult is the outcome of fetching one page.
type PageResult struct {
	Status PageStatus
	Items  []Movie
}

// Fetcher issues one GET per page against the discover endpoint, retrying
// transient failures with a fixed delay and signalling definitive exhaustion
// on an empty results array.
type Fetcher struct {
	client      HTTPDoer
	endpoint    string
	apiKey      string
	language    string
	maxAttempts int
	retryDelay  time.Duration
	rateDelay   time.Duration
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c HTTPDoer) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the fetcher's logger.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher builds a Fetcher from the source config.
func NewFetcher(src config.Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: src.Timeout()},
		endpoint:    src.Endpoint,
		apiKey:      src.APIKey,
		language:    src.Language,
		maxAttempts: src.Retry.MaxAttempts,
		retryDelay:  src.Retry.Delay(),
		rateDelay:   src.RateDelay(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.maxAttempts < 1 {
		f.maxAttempts = 1
	}
	return f
}

// FetchPage runs the attempt sequence for one page. The returned error is
// non-nil only when ctx is cancelled; transient failures are absorbed into
// PageAbandoned and an empty results array comes back as PageEmpty.
func (f *Fetcher) FetchPage(ctx context.Context, page int) (PageResult, error) {
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		items, err := f.fetchOnce(ctx, page)
		if err == nil {
			if len(items) == 0 {
				f.logger.Info("catalog exhausted", "page", page)
				return PageResult{Status: PageEmpty}, nil
			}
			metrics.PagesFetched.Inc()
			// Fixed pause after a successful page to respect the remote
			// rate limit. Not applied to empty or abandoned pages.
			if err := f.pause(ctx, f.rateDelay); err != nil {
				return PageResult{Status: PageFetched, Items: items}, err
			}
			return PageResult{Status: PageFetched, Items: items}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return PageResult{Status: PageAbandoned}, ctxErr
		}

		f.logger.Warn("retrying page",
			"page", page,
			"attempt", attempt,
			"attempts_left", f.maxAttempts-attempt,
			"error", err,
		)

		if attempt < f.maxAttempts {
			if err := f.pause(ctx, f.retryDelay); err != nil {
				return PageResult{Status: PageAbandoned}, err
			}
		}
	}

	f.logger.Warn("skipping page after retries", "page", page)
	metrics.PagesAbandoned.Inc()
	return PageResult{Status: PageAbandoned}, nil
}

// fetchOnce performs a single GET attempt and decodes the results array.
func (f *Fetcher) fetchOnce(ctx context.Context, page int) ([]Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrHTTPRequest, "build discover request")
	}

	q := req.URL.Query()
	q.Set("api_key", f.apiKey)
	q.Set("language", f.language)
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrHTTPRequest, "discover request")
	}
	defer resp.Body.Close()

	metrics.HTTPRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.WrapError(
			&HTTPError{StatusCode: resp.StatusCode, Status: resp.Status},
			errors.ErrHTTPResponse,
			"unexpected status code",
		)
	}

	var body discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.WrapError(err, errors.ErrHTTPResponse, "decode discover response")
	}

	return body.Results, nil
}

// pause sleeps for d unless ctx is cancelled first.
func (f *Fetcher) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
