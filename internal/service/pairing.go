package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/voltride/rental-server-go/internal/audit"
	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/events"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/repository"
)

// RidePublisher emits ride lifecycle events. Publishing is advisory: the
// engines never fail a command because an event could not be delivered.
type RidePublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// PairingService enforces the exclusive user↔vehicle link: at most one
// active vehicle per user and one active user per vehicle, at any instant.
type PairingService struct {
	tokens      *TokenService
	vehicleRepo repository.VehicleRepository
	pairingRepo repository.PairingRepository
	publisher   RidePublisher
}

func NewPairingService(
	tokens *TokenService,
	vehicleRepo repository.VehicleRepository,
	pairingRepo repository.PairingRepository,
	publisher RidePublisher,
) *PairingService {
	return &PairingService{
		tokens:      tokens,
		vehicleRepo: vehicleRepo,
		pairingRepo: pairingRepo,
		publisher:   publisher,
	}
}

// Pair links the caller to the vehicle with the given code. Checks run in a
// fixed order: vehicle existence, user-side conflict, vehicle-side conflict;
// a failed check performs no mutation. The conditional CreateLink is the
// authoritative guard under concurrency.
func (s *PairingService) Pair(ctx context.Context, credential, code string) error {
	userID, err := s.tokens.Resolve(credential)
	if err != nil {
		return err
	}

	vehicle, err := s.lookupVehicle(ctx, code)
	if err != nil {
		return err
	}

	userPaired, err := s.pairingRepo.ExistsActiveByUser(ctx, userID)
	if err != nil {
		return apperrors.Database(fmt.Errorf("check user pairing %s: %w", userID, err))
	}
	if userPaired {
		return apperrors.UserAlreadyPaired()
	}

	vehiclePaired, err := s.pairingRepo.ExistsActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return apperrors.Database(fmt.Errorf("check vehicle pairing %s: %w", vehicle.ID, err))
	}
	if vehiclePaired {
		return apperrors.VehicleAlreadyPaired()
	}

	if err := s.pairingRepo.CreateLink(ctx, userID, vehicle.ID); err != nil {
		if errors.Is(err, repository.ErrLinkExists) {
			// Lost a race past the advisory checks; re-read the user side
			// once to report the correct conflict.
			userPaired, checkErr := s.pairingRepo.ExistsActiveByUser(ctx, userID)
			if checkErr == nil && userPaired {
				return apperrors.UserAlreadyPaired()
			}
			return apperrors.VehicleAlreadyPaired()
		}
		return apperrors.Database(fmt.Errorf("create pairing link: %w", err))
	}

	audit.Log(ctx, audit.Event{Type: audit.EventVehiclePair, UserID: userID.String(), VehicleID: vehicle.ID.String()})
	s.publish(ctx, events.TypePaired, model.ActiveVehicle{UserID: userID, VehicleID: vehicle.ID})

	log.Info().
		Str("userId", userID.String()).
		Str("vehicleId", vehicle.ID.String()).
		Str("code", vehicle.Code).
		Msg("vehicle paired")

	return nil
}

// Unpair removes the link between the caller and exactly this vehicle. A
// vehicle paired to someone else, or not paired at all, is a conflict.
func (s *PairingService) Unpair(ctx context.Context, credential, code string) error {
	userID, err := s.tokens.Resolve(credential)
	if err != nil {
		return err
	}

	vehicle, err := s.lookupVehicle(ctx, code)
	if err != nil {
		return err
	}

	linked, err := s.pairingRepo.ExistsActiveFor(ctx, userID, vehicle.ID)
	if err != nil {
		return apperrors.Database(fmt.Errorf("check pairing link: %w", err))
	}
	if !linked {
		return apperrors.VehicleNotPaired()
	}

	if err := s.pairingRepo.DeleteLink(ctx, userID, vehicle.ID); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// Deleted by a concurrent unpair between the check and the write.
			return apperrors.VehicleNotPaired()
		}
		return apperrors.Database(fmt.Errorf("delete pairing link: %w", err))
	}

	audit.Log(ctx, audit.Event{Type: audit.EventVehicleUnpair, UserID: userID.String(), VehicleID: vehicle.ID.String()})
	s.publish(ctx, events.TypeUnpaired, model.ActiveVehicle{UserID: userID, VehicleID: vehicle.ID})

	log.Info().
		Str("userId", userID.String()).
		Str("vehicleId", vehicle.ID.String()).
		Msg("vehicle unpaired")

	return nil
}

func (s *PairingService) lookupVehicle(ctx context.Context, code string) (*model.Vehicle, error) {
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
	return vehicle, nil
}

func (s *PairingService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("failed to publish ride event")
	}
}
