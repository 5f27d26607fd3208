package model

import (
	"time"

	"github.com/google/uuid"
)

// ActiveVehicle is the exclusive pairing link between one user and one
// vehicle. At any instant a user appears in at most one link and so does a
// vehicle; the store enforces both sides.
type ActiveVehicle struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	VehicleID uuid.UUID `db:"vehicle_id" json:"vehicleId"`
	PairedAt  time.Time `db:"paired_at" json:"pairedAt"`
}
