// Package listquery implements the list-state controller shared by every
// entity store of the dashboard (clients, drivers, vehicles, routes, route
// points, trips, invoices).
//
// A Controller owns the pagination window, the active filter set, the
// loading/has-more flags and the fetched result set for one entity type. It
// issues requests against a Fetcher and reconciles the responses.
//
// # Supersession
//
// Every fetch initiation increments a request epoch. A response is applied
// only when its epoch is still the current one, so state always reflects the
// most recently issued request regardless of network arrival order:
//
//	go ctrl.FetchPage(ctx, teamID) // epoch 1, slow
//	ctrl.FetchPage(ctx, teamID)    // epoch 2, fast, applied
//	                               // epoch 1 arrives later and is discarded
//
// Superseded responses are not cancelled on the wire; they are computed and
// then dropped. Changing filters or the page size also supersedes any request
// in flight.
//
// # Modes
//
// A Policy selects between page mode, where each response replaces the visible
// items (discrete pager), and accumulate mode, where pages after the first are
// appended (infinite scroll). In accumulate mode FetchMore advances one page
// and ShouldFetchMore implements the scroll-threshold rule.
//
// # Basic Usage
//
//	ctrl, err := listquery.New[fleet.Driver](fetcher, fleet.DriverFilter{}, listquery.Options{
//		Name:     "drivers",
//		PageSize: 20,
//		Policy:   listquery.AccumulatePolicy(),
//	})
//	if err != nil {
//		return err
//	}
//
//	ctrl.SetFilters(fleet.DriverFilter{Status: "ACTIVE"})
//	if err := ctrl.FetchPage(ctx, teamID); err != nil {
//		// ctrl.View().Status == listquery.StatusError, items retained
//	}
//	_ = ctrl.FetchMore(ctx, teamID)
//
// Setters only prepare state; a fetch always requires an explicit FetchPage
// or FetchMore call.
package listquery
