package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation is a ledger record. An open reservation has no end time; a
// closed one carries the end time, ending location and computed cost.
// Records are never deleted and never reopened.
type Reservation struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	UserID         uuid.UUID        `db:"user_id" json:"userId"`
	VehicleID      uuid.UUID        `db:"vehicle_id" json:"vehicleId"`
	StartTime      time.Time        `db:"start_time" json:"startTime"`
	EndTime        *time.Time       `db:"end_time" json:"endTime,omitempty"`
	StartLatitude  float64          `db:"start_latitude" json:"-"`
	StartLongitude float64          `db:"start_longitude" json:"-"`
	EndLatitude    *float64         `db:"end_latitude" json:"-"`
	EndLongitude   *float64         `db:"end_longitude" json:"-"`
	Cost           *decimal.Decimal `db:"cost" json:"cost,omitempty"`
}

// Open reports whether the reservation is still in progress.
func (r *Reservation) Open() bool {
	return r.EndTime == nil
}

// StartingLocation returns the vehicle position snapshot taken at start.
func (r *Reservation) StartingLocation() Coordinates {
	return Coordinates{Latitude: r.StartLatitude, Longitude: r.StartLongitude}
}

// EndingLocation returns the position snapshot taken at close, if closed.
func (r *Reservation) EndingLocation() *Coordinates {
	if r.EndLatitude == nil || r.EndLongitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *r.EndLatitude, Longitude: *r.EndLongitude}
}

// Closed returns a copy of r transitioned to the closed state. The identity,
// start time and starting location are carried over untouched.
func (r Reservation) Closed(endTime time.Time, endingLocation Coordinates, cost decimal.Decimal) Reservation {
	r.EndTime = &endTime
	r.EndLatitude = &endingLocation.Latitude
	r.EndLongitude = &endingLocation.Longitude
	r.Cost = &cost
	return r
}

// CreateReservationParams is the input for opening a reservation.
type CreateReservationParams struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	VehicleID        uuid.UUID
	StartTime        time.Time
	StartingLocation Coordinates
}
