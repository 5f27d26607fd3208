package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voltride/rental-server-go/internal/audit"
	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/events"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/repository"
)

// ReservationService drives the NoReservation → Open → Closed state machine
// for each (user, vehicle) pair and prices the ride on close. Closed is
// terminal; a later start opens a fresh record.
type ReservationService struct {
	tokens          *TokenService
	vehicleRepo     repository.VehicleRepository
	pairingRepo     repository.PairingRepository
	reservationRepo repository.ReservationRepository
	clock           Clock
	publisher       RidePublisher
}

func NewReservationService(
	tokens *TokenService,
	vehicleRepo repository.VehicleRepository,
	pairingRepo repository.PairingRepository,
	reservationRepo repository.ReservationRepository,
	clock Clock,
	publisher RidePublisher,
) *ReservationService {
	return &ReservationService{
		tokens:          tokens,
		vehicleRepo:     vehicleRepo,
		pairingRepo:     pairingRepo,
		reservationRepo: reservationRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// SendCommand is the single command surface: START opens a reservation,
// STOP closes the open one. Identity, vehicle lookup and the pairing check
// are identical for both branches.
func (s *ReservationService) SendCommand(ctx context.Context, credential, code string, command model.VehicleCommand) (*model.Reservation, error) {
	if !command.Valid() {
		return nil, apperrors.InvalidInput("command", "must be START or STOP")
	}

	userID, err := s.tokens.Resolve(credential)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.MissingRequired("Vehicle code")
	}

	vehicle, err := s.vehicleRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find vehicle by code %q: %w", code, err))
	}
	if vehicle == nil {
		return nil, apperrors.NotFound("Vehicle")
	}

	linked, err := s.pairingRepo.ExistsActiveFor(ctx, userID, vehicle.ID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("check pairing link: %w", err))
	}
	if !linked {
		return nil, apperrors.VehicleNotPaired()
	}

	if command == model.CommandStart {
		return s.start(ctx, userID, vehicle)
	}
	return s.stop(ctx, userID, vehicle)
}

// start opens a reservation at the current instant with the vehicle's
// position snapshot. The guarded insert rejects when the user or the
// vehicle already holds an open record, racing callers included.
func (s *ReservationService) start(ctx context.Context, userID uuid.UUID, vehicle *model.Vehicle) (*model.Reservation, error) {
	open, err := s.reservationRepo.ExistsOpenFor(ctx, userID, vehicle.ID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("check open reservation: %w", err))
	}
	if open {
		return nil, apperrors.ReservationActive()
	}

	reservation, err := s.reservationRepo.Create(ctx, model.CreateReservationParams{
		ID:               uuid.New(),
		UserID:           userID,
		VehicleID:        vehicle.ID,
		StartTime:        s.clock.Now(),
		StartingLocation: vehicle.Position(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrOpenReservationExists) {
			return nil, apperrors.ReservationActive()
		}
		return nil, apperrors.Database(fmt.Errorf("create reservation: %w", err))
	}

	audit.Log(ctx, audit.Event{Type: audit.EventRideStart, UserID: userID.String(), VehicleID: vehicle.ID.String()})
	s.publish(ctx, events.TypeStarted, reservation)

	log.Info().
		Str("reservationId", reservation.ID.String()).
		Str("userId", userID.String()).
		Str("vehicleId", vehicle.ID.String()).
		Time("startTime", reservation.StartTime).
		Msg("reservation started")

	return reservation, nil
}

// stop closes the caller's open reservation on this vehicle and computes the
// cost. The conditional close means a concurrent stop loses with not-found
// rather than double-closing the record.
func (s *ReservationService) stop(ctx context.Context, userID uuid.UUID, vehicle *model.Vehicle) (*model.Reservation, error) {
	open, err := s.reservationRepo.FetchOpenFor(ctx, userID, vehicle.ID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("fetch open reservation: %w", err))
	}
	if open == nil {
		return nil, apperrors.NotFound("Active reservation")
	}

	endTime := s.clock.Now()
	cost := CalculateCost(open.StartTime, endTime)

	closed, err := s.reservationRepo.Close(ctx, open.ID, endTime, vehicle.Position(), cost)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotOpen) {
			return nil, apperrors.NotFound("Active reservation")
		}
		return nil, apperrors.Database(fmt.Errorf("close reservation %s: %w", open.ID, err))
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventRideEnd,
		UserID:    userID.String(),
		VehicleID: vehicle.ID.String(),
		Details:   map[string]interface{}{"cost": cost.String()},
	})
	s.publish(ctx, events.TypeEnded, closed)

	log.Info().
		Str("reservationId", closed.ID.String()).
		Str("userId", userID.String()).
		Str("vehicleId", vehicle.ID.String()).
		Str("cost", cost.String()).
		Msg("reservation ended")

	return closed, nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish ride event")
	}
}
