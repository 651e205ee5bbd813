package fleet

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
)

// Filter query keys sent to the API.
const (
	KeyStatus        = "status"
	KeySearch        = "search"
	KeyDriverID      = "driverId"
	KeyVehicleID     = "vehicleId"
	KeyRouteID       = "routeId"
	KeyClientID      = "clientId"
	KeyPaymentStatus = "paymentStatus"
)

// ErrUnknownFilter is returned when a filter key does not apply to a list.
var ErrUnknownFilter = fmt.Errorf("%w: unknown filter", listquery.ErrInvalidArgument)

// Status values the UI cycles through. The empty string means "any".
var (
	ClientStatuses  = []string{"", "active", "inactive"}
	DriverStatuses  = []string{"", "available", "on_trip", "off_duty"}
	VehicleStatuses = []string{"", "available", "in_use", "maintenance"}
	RouteStatuses   = []string{"", "active", "archived"}
	TripStatuses    = []string{"", "scheduled", "in_progress", "completed", "cancelled"}
	PaymentStatuses = []string{"", "pending", "paid", "overdue"}
)

// ClientFilter filters the client list.
type ClientFilter struct {
	Status string
	Search string
}

// Values returns the Client filters as request query values.
func (f ClientFilter) Values() map[string]string {
	return values(KeyStatus, f.Status, KeySearch, f.Search)
}

// With returns a copy with one field set.
func (f ClientFilter) With(key, value string) (ClientFilter, error) {
	switch key {
	case KeyStatus:
		f.Status = value
	case KeySearch:
		f.Search = value
	default:
		return f, unknown("clients", key)
	}
	return f, nil
}

// DriverFilter filters the driver list.
type DriverFilter struct {
	Status string
	Search string
}

// Values returns the Driver filters as request query values.
func (f DriverFilter) Values() map[string]string {
	return values(KeyStatus, f.Status, KeySearch, f.Search)
}

// With returns a copy with one field set.
func (f DriverFilter) With(key, value string) (DriverFilter, error) {
	switch key {
	case KeyStatus:
		f.Status = value
	case KeySearch:
		f.Search = value
	default:
		return f, unknown("drivers", key)
	}
	return f, nil
}

// VehicleFilter filters the vehicle list.
type VehicleFilter struct {
	Status   string
	Search   string
	DriverID string
}

// Values returns the Vehicle filters as request query values.
func (f VehicleFilter) Values() map[string]string {
	return values(KeyStatus, f.Status, KeySearch, f.Search, KeyDriverID, f.DriverID)
}

// With returns a copy with one field set.
func (f VehicleFilter) With(key, value string) (VehicleFilter, error) {
	switch key {
	case KeyStatus:
		f.Status = value
	case KeySearch:
		f.Search = value
	case KeyDriverID:
		f.DriverID = value
	default:
		return f, unknown("vehicles", key)
	}
	return f, nil
}

// RouteFilter filters the route list.
type RouteFilter struct {
	Status string
	Search string
}

// Values returns the Route filters as request query values.
func (f RouteFilter) Values() map[string]string {
	return values(KeyStatus, f.Status, KeySearch, f.Search)
}

// With returns a copy with one field set.
func (f RouteFilter) With(key, value string) (RouteFilter, error) {
	switch key {
	case KeyStatus:
		f.Status = value
	case KeySearch:
		f.Search = value
	default:
		return f, unknown("routes", key)
	}
	return f, nil
}

// RoutePointFilter filters route points, usually down to one route.
type RoutePointFilter struct {
	RouteID string
	Search  string
}

// Values returns the RoutePoint filters as request query values.
func (f RoutePointFilter) Values() map[string]string {
	return values(KeyRouteID, f.RouteID, KeySearch, f.Search)
}

// With returns a copy with one field set.
func (f RoutePointFilter) With(key, value string) (RoutePointFilter, error) {
	switch key {
	case KeyRouteID:
		f.RouteID = value
	case KeySearch:
		f.Search = value
	default:
		return f, unknown("route-points", key)
	}
	return f, nil
}

// TripFilter filters the trip list.
type TripFilter struct {
	Status    string
	Search    string
	DriverID  string
	VehicleID string
	RouteID   string
}

// Values returns the Trip filters as request query values.
func (f TripFilter) Values() map[string]string {
	return values(
		KeyStatus, f.Status,
		KeySearch, f.Search,
		KeyDriverID, f.DriverID,
		KeyVehicleID, f.VehicleID,
		KeyRouteID, f.RouteID,
	)
}

// With returns a copy with one field set.
func (f TripFilter) With(key, value string) (TripFilter, error) {
	switch key {
	case KeyStatus:
		f.Status = value
	case KeySearch:
		f.Search = value
	case KeyDriverID:
		f.DriverID = value
	case KeyVehicleID:
		f.VehicleID = value
	case KeyRouteID:
		f.RouteID = value
	default:
		return f, unknown("trips", key)
	}
	return f, nil
}

// InvoiceFilter filters the invoice list. Invoices have a payment status
// instead of a lifecycle status; "status" is accepted as an alias.
type InvoiceFilter struct {
	PaymentStatus string
	Search        string
	ClientID      string
}

// Values returns the Invoice filters as request query values.
func (f InvoiceFilter) Values() map[string]string {
	return values(KeyPaymentStatus, f.PaymentStatus, KeySearch, f.Search, KeyClientID, f.ClientID)
}

// With returns a copy with one field set.
func (f InvoiceFilter) With(key, value string) (InvoiceFilter, error) {
	switch key {
	case KeyPaymentStatus, KeyStatus:
		f.PaymentStatus = value
	case KeySearch:
		f.Search = value
	case KeyClientID:
		f.ClientID = value
	default:
		return f, unknown("invoices", key)
	}
	return f, nil
}

// values builds a query map from key/value pairs, dropping blank values.
func values(kv ...string) map[string]string {
	out := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if v := strings.TrimSpace(kv[i+1]); v != "" {
			out[kv[i]] = v
		}
	}
	return out
}

func unknown(list, key string) error {
	return fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, list)
}

// StatusFilter returns the filter key and values a UI cycles through for a
// list. It returns "", nil for lists without a status.
func StatusFilter(list string) (key string, options []string) {
	switch list {
	case ResourceClients:
		return KeyStatus, ClientStatuses
	case ResourceDrivers:
		return KeyStatus, DriverStatuses
	case ResourceVehicles:
		return KeyStatus, VehicleStatuses
	case ResourceRoutes:
		return KeyStatus, RouteStatuses
	case ResourceTrips:
		return KeyStatus, TripStatuses
	case ResourceInvoices:
		return KeyPaymentStatus, PaymentStatuses
	default:
		return "", nil
	}
}
