package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// RegisterUserParams carries the raw registration input before hashing.
type RegisterUserParams struct {
	Email    string
	Password string
	Name     string
}

// UserWithVehicle is the /users/me projection: the user plus the live
// telemetry snapshot of the vehicle they are currently paired with, if any.
type UserWithVehicle struct {
	User          User     `json:"user"`
	ActiveVehicle *Vehicle `json:"activeVehicle,omitempty"`
}
