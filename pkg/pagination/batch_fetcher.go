package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	// Keep it low; the API rate limit is shared with interactive sessions.
	MaxConcurrency int
	// PageSize is the limit sent with every request
	PageSize int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		PageSize:       100,
		Timeout:        15 * time.Second,
	}
}

// PageResult represents the result of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Data       []T
	Error      error
}

// BatchFetcher handles parallel fetching of every page of a list
type BatchFetcher[T any] struct {
	fetcher listquery.Fetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetcher listquery.Fetcher[T], config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAll fetches all pages of a list in parallel and returns the items in
// offset order. On a failed page it returns the items of the contiguous
// prefix fetched before the gap together with the error.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, scope string, filters map[string]string) ([]T, error) {
	start := time.Now()
	pageSize := bf.config.PageSize

	first, err := bf.fetchPage(ctx, scope, filters, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := (first.Total + pageSize - 1) / pageSize
	bf.logger.Info().
		Str("scope", scope).
		Int("total", first.Total).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages <= 1 {
		bf.logger.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Data, nil
	}

	pages := make(map[int][]T, totalPages)
	pages[0] = first.Data

	pageQueue := make(chan int, totalPages)
	pageResults := make(chan PageResult[T], totalPages)
	errs := make(chan error, bf.config.MaxConcurrency)

	for page := 1; page < totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(workerCtx, cancel, scope, filters, pageQueue, pageResults, errs, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
		close(errs)
	}()

	fetchedPages := 1
	for result := range pageResults {
		pages[result.PageNumber] = result.Data
		fetchedPages++
	}

	items := assemble(pages, totalPages, first.Total)

	if err := <-errs; err != nil {
		bf.logger.Warn().
			Err(err).
			Int("fetched_pages", fetchedPages).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return items, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
	}
	if err := ctx.Err(); err != nil {
		return items, fmt.Errorf("fetch cancelled (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
	}

	bf.logger.Info().
		Int("pages", fetchedPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// worker processes pages from the queue. The first failure cancels the
// remaining workers.
func (bf *BatchFetcher[T]) worker(ctx context.Context, cancel context.CancelFunc, scope string, filters map[string]string, pageQueue <-chan int, results chan<- PageResult[T], errs chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			bf.logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		page, err := bf.fetchPage(ctx, scope, filters, pageNum)
		if err != nil {
			bf.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			select {
			case errs <- fmt.Errorf("page %d: %w", pageNum, err):
			default:
			}
			cancel()
			return
		}

		results <- PageResult[T]{PageNumber: pageNum, Data: page.Data}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		bf.logger.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, scope string, filters map[string]string, pageNum int) (listquery.Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	return bf.fetcher.Fetch(pageCtx, listquery.Request{
		Scope:   scope,
		Offset:  pageNum * bf.config.PageSize,
		Limit:   bf.config.PageSize,
		Filters: filters,
	})
}

// assemble concatenates pages in order up to the first missing page and caps
// the result at total.
func assemble[T any](pages map[int][]T, totalPages, total int) []T {
	items := make([]T, 0, total)
	for page := 0; page < totalPages; page++ {
		data, ok := pages[page]
		if !ok {
			break
		}
		items = append(items, data...)
	}
	if len(items) > total {
		items = items[:total]
	}
	return items
}
