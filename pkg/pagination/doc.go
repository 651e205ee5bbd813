// Package pagination provides parallel batch fetching for offset-paginated
// list endpoints.
//
// The dashboard API reports the total number of matching records with every
// page, so once the first page is in, all remaining offsets are known and can
// be fetched concurrently. This package implements a worker pool that does
// exactly that, used by the export command.
//
// Example usage:
//
//	config := pagination.DefaultConfig()
//	fetcher := pagination.NewBatchFetcher[fleet.Trip](tripsEndpoint, config)
//	trips, err := fetcher.FetchAll(ctx, "team-1", map[string]string{"status": "completed"})
//
// The batch fetcher:
//   - Fetches the first page to learn the total
//   - Spawns a worker pool (default 4 workers)
//   - Distributes the remaining offsets across workers
//   - Reassembles items in offset order
//   - Returns the contiguous prefix fetched so far plus an error on failure
package pagination
