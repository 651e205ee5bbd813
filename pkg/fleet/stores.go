package fleet

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Sternrassler/fleetdash/pkg/client"
	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// API list resources, also used as list names.
const (
	ResourceClients     = "clients"
	ResourceDrivers     = "drivers"
	ResourceVehicles    = "vehicles"
	ResourceRoutes      = "routes"
	ResourceRoutePoints = "route-points"
	ResourceTrips       = "trips"
	ResourceInvoices    = "invoices"
)

// Resources lists every entity list in display order.
var Resources = []string{
	ResourceClients,
	ResourceDrivers,
	ResourceVehicles,
	ResourceRoutes,
	ResourceRoutePoints,
	ResourceTrips,
	ResourceInvoices,
}

// ListConfig sets page size and mode of one list.
type ListConfig struct {
	PageSize int
	Mode     listquery.Mode
}

// ListOverride is a partial ListConfig as read from configuration. Mode is
// parsed with listquery.ParseMode; empty keeps the default.
type ListOverride struct {
	PageSize int
	Mode     string
}

// DefaultListConfigs returns the dashboard defaults: tables page through
// clients, drivers, vehicles and routes; trips, route points and invoices
// load more as the user scrolls.
func DefaultListConfigs() map[string]ListConfig {
	return map[string]ListConfig{
		ResourceClients:     {PageSize: 10, Mode: listquery.PageMode},
		ResourceDrivers:     {PageSize: 10, Mode: listquery.PageMode},
		ResourceVehicles:    {PageSize: 10, Mode: listquery.PageMode},
		ResourceRoutes:      {PageSize: 10, Mode: listquery.PageMode},
		ResourceRoutePoints: {PageSize: 50, Mode: listquery.AccumulateMode},
		ResourceTrips:       {PageSize: 20, Mode: listquery.AccumulateMode},
		ResourceInvoices:    {PageSize: 20, Mode: listquery.AccumulateMode},
	}
}

// Fetchers holds one list endpoint per entity.
type Fetchers struct {
	Clients     listquery.Fetcher[Client]
	Drivers     listquery.Fetcher[Driver]
	Vehicles    listquery.Fetcher[Vehicle]
	Routes      listquery.Fetcher[Route]
	RoutePoints listquery.Fetcher[RoutePoint]
	Trips       listquery.Fetcher[Trip]
	Invoices    listquery.Fetcher[Invoice]
}

// HTTPFetchers binds every entity to its REST resource.
func HTTPFetchers(c *client.Client) Fetchers {
	return Fetchers{
		Clients:     client.NewEndpoint[Client](c, ResourceClients),
		Drivers:     client.NewEndpoint[Driver](c, ResourceDrivers),
		Vehicles:    client.NewEndpoint[Vehicle](c, ResourceVehicles),
		Routes:      client.NewEndpoint[Route](c, ResourceRoutes),
		RoutePoints: client.NewEndpoint[RoutePoint](c, ResourceRoutePoints),
		Trips:       client.NewEndpoint[Trip](c, ResourceTrips),
		Invoices:    client.NewEndpoint[Invoice](c, ResourceInvoices),
	}
}

// Stores owns one list controller per entity. Controllers are shared: every
// consumer of the same Stores sees the same state.
type Stores struct {
	Clients     *listquery.Controller[Client, ClientFilter]
	Drivers     *listquery.Controller[Driver, DriverFilter]
	Vehicles    *listquery.Controller[Vehicle, VehicleFilter]
	Routes      *listquery.Controller[Route, RouteFilter]
	RoutePoints *listquery.Controller[RoutePoint, RoutePointFilter]
	Trips       *listquery.Controller[Trip, TripFilter]
	Invoices    *listquery.Controller[Invoice, InvoiceFilter]

	tables map[string]Table
}

// NewStores builds the controllers. overrides adjust DefaultListConfigs per
// resource. logger may be nil.
func NewStores(f Fetchers, overrides map[string]ListOverride, logger *zerolog.Logger) (*Stores, error) {
	merged := DefaultListConfigs()
	for name, o := range overrides {
		def, ok := merged[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown list %q", listquery.ErrInvalidArgument, name)
		}
		if o.PageSize < 0 {
			return nil, fmt.Errorf("%w: %s page size must be > 0 (got %d)", listquery.ErrInvalidArgument, name, o.PageSize)
		}
		if o.PageSize > 0 {
			def.PageSize = o.PageSize
		}
		if o.Mode != "" {
			mode, err := listquery.ParseMode(o.Mode)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			def.Mode = mode
		}
		merged[name] = def
	}

	opts := func(name string) listquery.Options {
		cfg := merged[name]
		policy := listquery.PagePolicy()
		if cfg.Mode == listquery.AccumulateMode {
			policy = listquery.AccumulatePolicy()
		}
		return listquery.Options{Name: name, PageSize: cfg.PageSize, Policy: policy, Logger: logger}
	}

	s := &Stores{tables: make(map[string]Table, len(Resources))}
	var err error

	if s.Clients, err = listquery.New(f.Clients, ClientFilter{}, opts(ResourceClients)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceClients, err)
	}
	s.tables[ResourceClients] = newTable(s.Clients, f.Clients, ClientColumns)

	if s.Drivers, err = listquery.New(f.Drivers, DriverFilter{}, opts(ResourceDrivers)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceDrivers, err)
	}
	s.tables[ResourceDrivers] = newTable(s.Drivers, f.Drivers, DriverColumns)

	if s.Vehicles, err = listquery.New(f.Vehicles, VehicleFilter{}, opts(ResourceVehicles)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceVehicles, err)
	}
	s.tables[ResourceVehicles] = newTable(s.Vehicles, f.Vehicles, VehicleColumns)

	if s.Routes, err = listquery.New(f.Routes, RouteFilter{}, opts(ResourceRoutes)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceRoutes, err)
	}
	s.tables[ResourceRoutes] = newTable(s.Routes, f.Routes, RouteColumns)

	if s.RoutePoints, err = listquery.New(f.RoutePoints, RoutePointFilter{}, opts(ResourceRoutePoints)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceRoutePoints, err)
	}
	s.tables[ResourceRoutePoints] = newTable(s.RoutePoints, f.RoutePoints, RoutePointColumns)

	if s.Trips, err = listquery.New(f.Trips, TripFilter{}, opts(ResourceTrips)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceTrips, err)
	}
	s.tables[ResourceTrips] = newTable(s.Trips, f.Trips, TripColumns)

	if s.Invoices, err = listquery.New(f.Invoices, InvoiceFilter{}, opts(ResourceInvoices)); err != nil {
		return nil, fmt.Errorf("%s store: %w", ResourceInvoices, err)
	}
	s.tables[ResourceInvoices] = newTable(s.Invoices, f.Invoices, InvoiceColumns)

	return s, nil
}

// Table returns the list named name. Singular names are accepted.
func (s *Stores) Table(name string) (Table, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := s.tables[key]; ok {
		return t, nil
	}
	if t, ok := s.tables[key+"s"]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: unknown list %q (want one of %s)",
		listquery.ErrInvalidArgument, name, strings.Join(s.Names(), ", "))
}

// Names returns the list names, sorted.
func (s *Stores) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RefreshAll refreshes every list of scope in parallel. A failing list does
// not cancel the others; the first error is returned once all have settled.
func (s *Stores) RefreshAll(ctx context.Context, scope string) error {
	var g errgroup.Group
	for _, name := range Resources {
		t := s.tables[name]
		g.Go(func() error {
			if err := t.Refresh(ctx, scope); err != nil {
				return fmt.Errorf("refresh %s: %w", t.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
