package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/voltride/rental-server-go/internal/model"
)

var (
	// ErrOpenReservationExists is returned by Create when the user or the
	// vehicle already has an open reservation.
	ErrOpenReservationExists = errors.New("open reservation exists")
	// ErrReservationNotOpen is returned by Close when the record is absent
	// or already closed. The loser of a concurrent double-stop sees this.
	ErrReservationNotOpen = errors.New("reservation not open")
)

type ReservationRepository interface {
	ExistsOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error)
	FetchOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (*model.Reservation, error)
	Create(ctx context.Context, params model.CreateReservationParams) (*model.Reservation, error)
	Close(ctx context.Context, id uuid.UUID, endTime time.Time, endingLocation model.Coordinates, cost decimal.Decimal) (*model.Reservation, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
}

type reservationRepo struct {
	db *sqlx.DB
}

func NewReservationRepository(db *sqlx.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

// ExistsOpenFor checks both sides with a single predicate: an open record
// held by this user on any vehicle, or on this vehicle by any user.
func (r *reservationRepo) ExistsOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE (user_id = $1 OR vehicle_id = $2) AND end_time IS NULL
		)
	`, userID, vehicleID)
	return exists, err
}

func (r *reservationRepo) FetchOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.GetContext(ctx, &res, `
		SELECT * FROM reservations
		WHERE user_id = $1 AND vehicle_id = $2 AND end_time IS NULL
	`, userID, vehicleID)
	return HandleNotFound(&res, err)
}

// Create opens a reservation only if neither the user nor the vehicle holds
// an open one. The guarded insert plus the partial unique indexes on
// (user_id) and (vehicle_id) WHERE end_time IS NULL keep two racing start
// commands from both succeeding.
func (r *reservationRepo) Create(ctx context.Context, params model.CreateReservationParams) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.GetContext(ctx, &res, `
		INSERT INTO reservations (id, user_id, vehicle_id, start_time, start_latitude, start_longitude)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM reservations
			WHERE (user_id = $2 OR vehicle_id = $3) AND end_time IS NULL
		)
		RETURNING *
	`, params.ID, params.UserID, params.VehicleID, params.StartTime,
		params.StartingLocation.Latitude, params.StartingLocation.Longitude)
	if isUniqueViolation(err) {
		return nil, ErrOpenReservationExists
	}
	res2, err := HandleNotFound(&res, err)
	if err != nil {
		return nil, err
	}
	if res2 == nil {
		return nil, ErrOpenReservationExists
	}
	return res2, nil
}

// Close transitions an open record to closed. The end_time IS NULL guard
// makes the close conditional: a record closed by a concurrent stop yields
// zero rows and ErrReservationNotOpen.
func (r *reservationRepo) Close(ctx context.Context, id uuid.UUID, endTime time.Time, endingLocation model.Coordinates, cost decimal.Decimal) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.GetContext(ctx, &res, `
		UPDATE reservations SET
			end_time = $2,
			end_latitude = $3,
			end_longitude = $4,
			cost = $5
		WHERE id = $1 AND end_time IS NULL
		RETURNING *
	`, id, endTime, endingLocation.Latitude, endingLocation.Longitude, cost)
	res2, err := HandleNotFound(&res, err)
	if err != nil {
		return nil, err
	}
	if res2 == nil {
		return nil, ErrReservationNotOpen
	}
	return res2, nil
}

func (r *reservationRepo) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.SelectContext(ctx, &reservations, `
		SELECT * FROM reservations
		WHERE end_time IS NULL AND start_time < $1
		ORDER BY start_time ASC
	`, cutoff)
	return reservations, err
}
