package model

import (
	"time"

	"github.com/google/uuid"
)

// Coordinates is a latitude/longitude pair as reported by fleet telemetry.
type Coordinates struct {
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}

// Vehicle is a telemetry snapshot owned by the external fleet system.
// The rental core only ever reads it.
type Vehicle struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	StateOfCharge  float64   `db:"state_of_charge" json:"stateOfCharge"`
	Latitude       float64   `db:"latitude" json:"latitude"`
	Longitude      float64   `db:"longitude" json:"longitude"`
	PoweredOn      bool      `db:"powered_on" json:"poweredOn"`
	Odometer       float64   `db:"odometer" json:"odometer"`
	EstimatedRange float64   `db:"estimated_range" json:"estimatedRange"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Position returns the vehicle's current coordinates.
func (v *Vehicle) Position() Coordinates {
	return Coordinates{Latitude: v.Latitude, Longitude: v.Longitude}
}
