package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voltride/rental-server-go/internal/model"
)

// VehicleRepository is the read-only directory of fleet telemetry snapshots.
// Rows are written by the external fleet system; the rental core never
// mutates them.
type VehicleRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Vehicle, error)
	Fetch(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
}

type vehicleRepo struct {
	db *sqlx.DB
}

func NewVehicleRepository(db *sqlx.DB) VehicleRepository {
	return &vehicleRepo{db: db}
}

func (r *vehicleRepo) FindByCode(ctx context.Context, code string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.GetContext(ctx, &vehicle, `
		SELECT * FROM vehicles WHERE code = $1
	`, code)
	return HandleNotFound(&vehicle, err)
}

func (r *vehicleRepo) Fetch(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.GetContext(ctx, &vehicle, `
		SELECT * FROM vehicles WHERE id = $1
	`, id)
	return HandleNotFound(&vehicle, err)
}
