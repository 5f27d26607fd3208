package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voltride/rental-server-go/internal/model"
)

// Sentinels for the atomic link operations. CreateLink must reject when
// either side of the link is already taken, in the same statement that
// checks it; two racing pair calls must never both succeed.
var (
	ErrLinkExists   = errors.New("pairing link exists")
	ErrLinkNotFound = errors.New("pairing link not found")
)

type PairingRepository interface {
	ExistsActiveByUser(ctx context.Context, userID uuid.UUID) (bool, error)
	ExistsActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)
	ExistsActiveFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*model.ActiveVehicle, error)
	CreateLink(ctx context.Context, userID, vehicleID uuid.UUID) error
	DeleteLink(ctx context.Context, userID, vehicleID uuid.UUID) error
}

type pairingRepo struct {
	db *sqlx.DB
}

func NewPairingRepository(db *sqlx.DB) PairingRepository {
	return &pairingRepo{db: db}
}

func (r *pairingRepo) ExistsActiveByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM active_vehicles WHERE user_id = $1)
	`, userID)
	return exists, err
}

func (r *pairingRepo) ExistsActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM active_vehicles WHERE vehicle_id = $1)
	`, vehicleID)
	return exists, err
}

func (r *pairingRepo) ExistsActiveFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM active_vehicles WHERE user_id = $1 AND vehicle_id = $2)
	`, userID, vehicleID)
	return exists, err
}

func (r *pairingRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*model.ActiveVehicle, error) {
	var link model.ActiveVehicle
	err := r.db.GetContext(ctx, &link, `
		SELECT * FROM active_vehicles WHERE user_id = $1
	`, userID)
	return HandleNotFound(&link, err)
}

// CreateLink inserts the (user, vehicle) link only if neither side already
// holds one. The guarded insert and the unique indexes on both columns make
// the existence check and the write a single atomic step.
func (r *pairingRepo) CreateLink(ctx context.Context, userID, vehicleID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO active_vehicles (user_id, vehicle_id)
		SELECT $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM active_vehicles WHERE user_id = $1 OR vehicle_id = $2
		)
	`, userID, vehicleID)
	if isUniqueViolation(err) {
		return ErrLinkExists
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLinkExists
	}
	return nil
}

func (r *pairingRepo) DeleteLink(ctx context.Context, userID, vehicleID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM active_vehicles WHERE user_id = $1 AND vehicle_id = $2
	`, userID, vehicleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLinkNotFound
	}
	return nil
}
