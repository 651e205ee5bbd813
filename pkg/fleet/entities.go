// Package fleet defines the dashboard's list entities and wires one list
// controller per entity.
package fleet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Client is a customer whose freight is moved.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Driver is a team member allowed to operate vehicles.
type Driver struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	LicenseNumber string    `json:"licenseNumber"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FullName joins first and last name.
func (d Driver) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Vehicle is a truck or trailer.
type Vehicle struct {
	ID         string `json:"id"`
	Plate      string `json:"plate"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	CapacityKg int    `json:"capacityKg"`
	Status     string `json:"status"`
	DriverID   string `json:"driverId,omitempty"`
}

// Route is a named origin to destination path.
type Route struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distanceKm"`
	Status      string  `json:"status"`
}

// RoutePoint is one stop of a route.
type RoutePoint struct {
	ID       string  `json:"id"`
	RouteID  string  `json:"routeId"`
	Sequence int     `json:"sequence"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Trip is one scheduled run of a route.
type Trip struct {
	ID          string     `json:"id"`
	RouteID     string     `json:"routeId"`
	DriverID    string     `json:"driverId"`
	VehicleID   string     `json:"vehicleId"`
	ClientID    string     `json:"clientId"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Invoice bills a client for one or more trips.
type Invoice struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	ClientID      string    `json:"clientId"`
	TripID        string    `json:"tripId,omitempty"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentStatus string    `json:"paymentStatus"`
	IssuedAt      time.Time `json:"issuedAt"`
	DueAt         time.Time `json:"dueAt"`
}

// Table columns per entity, matching the Row methods below.
var (
	ClientColumns     = []string{"ID", "Name", "Email", "Phone", "Status"}
	DriverColumns     = []string{"ID", "Name", "License", "Phone", "Status"}
	VehicleColumns    = []string{"ID", "Plate", "Vehicle", "Capacity (kg)", "Status"}
	RouteColumns      = []string{"ID", "Name", "From", "To", "Distance (km)", "Status"}
	RoutePointColumns = []string{"ID", "Route", "#", "Name", "Position"}
	TripColumns       = []string{"ID", "Route", "Driver", "Vehicle", "Scheduled", "Status"}
	InvoiceColumns    = []string{"Number", "Client", "Amount", "Due", "Payment"}
)

const dateLayout = "2006-01-02"

func (c Client) Row() []string {
	return []string{c.ID, c.Name, c.Email, c.Phone, c.Status}
}

func (d Driver) Row() []string {
	return []string{d.ID, d.FullName(), d.LicenseNumber, d.Phone, d.Status}
}

func (v Vehicle) Row() []string {
	name := strings.TrimSpace(fmt.Sprintf("%s %s", v.Make, v.Model))
	if v.Year > 0 {
		name += fmt.Sprintf(" (%d)", v.Year)
	}
	return []string{v.ID, v.Plate, name, strconv.Itoa(v.CapacityKg), v.Status}
}

func (r Route) Row() []string {
	return []string{r.ID, r.Name, r.Origin, r.Destination, strconv.FormatFloat(r.DistanceKm, 'f', 1, 64), r.Status}
}

func (p RoutePoint) Row() []string {
	return []string{p.ID, p.RouteID, strconv.Itoa(p.Sequence), p.Name, fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)}
}

func (t Trip) Row() []string {
	return []string{t.ID, t.RouteID, t.DriverID, t.VehicleID, formatDate(t.ScheduledAt), t.Status}
}

func (i Invoice) Row() []string {
	amount := strconv.FormatFloat(i.Amount, 'f', 2, 64)
	if i.Currency != "" {
		amount += " " + i.Currency
	}
	return []string{i.Number, i.ClientID, amount, formatDate(i.DueAt), i.PaymentStatus}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
