package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/events"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/repository"
)

func TestPairingService_Pair(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tokens := newTestTokens(clock)
	userID := uuid.New()
	credential := issueCredential(tokens, userID)

	t.Run("links user and vehicle and publishes", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		publisher := new(mockPublisher)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, publisher)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(false, nil)
		pairingRepo.On("ExistsActiveByVehicle", ctx, vehicle.ID).Return(false, nil)
		pairingRepo.On("CreateLink", ctx, userID, vehicle.ID).Return(nil)
		publisher.On("Publish", ctx, events.TypePaired, mock.Anything).Return(nil)

		err := svc.Pair(ctx, credential, "SCOOT-42")
		require.NoError(t, err)
		pairingRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("trims the code before lookup", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(false, nil)
		pairingRepo.On("ExistsActiveByVehicle", ctx, vehicle.ID).Return(false, nil)
		pairingRepo.On("CreateLink", ctx, userID, vehicle.ID).Return(nil)

		err := svc.Pair(ctx, credential, "  SCOOT-42  ")
		require.NoError(t, err)
	})

	t.Run("unknown vehicle code is not found, even when the user is paired", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicleRepo.On("FindByCode", ctx, "GHOST").Return(nil, nil)

		err := svc.Pair(ctx, credential, "GHOST")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		pairingRepo.AssertNotCalled(t, "ExistsActiveByUser", mock.Anything, mock.Anything)
		pairingRepo.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank code is rejected", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		svc := NewPairingService(tokens, vehicleRepo, new(mockPairingRepo), nil)

		err := svc.Pair(ctx, credential, "   ")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
		vehicleRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("user already paired wins over vehicle conflict", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(true, nil)

		err := svc.Pair(ctx, credential, "SCOOT-42")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUserAlreadyPaired, apperrors.GetCode(err))
		pairingRepo.AssertNotCalled(t, "ExistsActiveByVehicle", mock.Anything, mock.Anything)
		pairingRepo.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("vehicle paired to someone else", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(false, nil)
		pairingRepo.On("ExistsActiveByVehicle", ctx, vehicle.ID).Return(true, nil)

		err := svc.Pair(ctx, credential, "SCOOT-42")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeVehicleAlreadyPaired, apperrors.GetCode(err))
		pairingRepo.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("race loser reports the side that filled in", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		// Advisory checks pass, then the conditional insert loses.
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(false, nil).Once()
		pairingRepo.On("ExistsActiveByVehicle", ctx, vehicle.ID).Return(false, nil).Once()
		pairingRepo.On("CreateLink", ctx, userID, vehicle.ID).Return(repository.ErrLinkExists)
		pairingRepo.On("ExistsActiveByUser", ctx, userID).Return(false, nil).Once()

		err := svc.Pair(ctx, credential, "SCOOT-42")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeVehicleAlreadyPaired, apperrors.GetCode(err))
	})
}

func TestPairingService_Unpair(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tokens := newTestTokens(clock)
	userID := uuid.New()
	credential := issueCredential(tokens, userID)

	t.Run("removes the exact link", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		publisher := new(mockPublisher)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, publisher)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveFor", ctx, userID, vehicle.ID).Return(true, nil)
		pairingRepo.On("DeleteLink", ctx, userID, vehicle.ID).Return(nil)
		publisher.On("Publish", ctx, events.TypeUnpaired, mock.Anything).Return(nil)

		err := svc.Unpair(ctx, credential, "SCOOT-42")
		require.NoError(t, err)
		pairingRepo.AssertExpectations(t)
	})

	t.Run("vehicle paired to a different user is a conflict, nothing is deleted", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveFor", ctx, userID, vehicle.ID).Return(false, nil)

		err := svc.Unpair(ctx, credential, "SCOOT-42")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeVehicleNotPaired, apperrors.GetCode(err))
		pairingRepo.AssertNotCalled(t, "DeleteLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent unpair loser gets the same conflict", func(t *testing.T) {
		vehicleRepo := new(mockVehicleRepo)
		pairingRepo := new(mockPairingRepo)
		svc := NewPairingService(tokens, vehicleRepo, pairingRepo, nil)

		vehicle := testVehicle("SCOOT-42")
		vehicleRepo.On("FindByCode", ctx, "SCOOT-42").Return(vehicle, nil)
		pairingRepo.On("ExistsActiveFor", ctx, userID, vehicle.ID).Return(true, nil)
		pairingRepo.On("DeleteLink", ctx, userID, vehicle.ID).Return(repository.ErrLinkNotFound)

		err := svc.Unpair(ctx, credential, "SCOOT-42")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeVehicleNotPaired, apperrors.GetCode(err))
	})
}

// atomicPairingStore is an in-memory PairingRepository whose CreateLink has
// the same all-or-nothing semantics as the conditional insert.
type atomicPairingStore struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]uuid.UUID
	byVeh  map[uuid.UUID]uuid.UUID
}

func newAtomicPairingStore() *atomicPairingStore {
	return &atomicPairingStore{
		byUser: make(map[uuid.UUID]uuid.UUID),
		byVeh:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *atomicPairingStore) ExistsActiveByUser(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byUser[userID]
	return ok, nil
}

func (s *atomicPairingStore) ExistsActiveByVehicle(_ context.Context, vehicleID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byVeh[vehicleID]
	return ok, nil
}

func (s *atomicPairingStore) ExistsActiveFor(_ context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser[userID] == vehicleID && s.byVeh[vehicleID] == userID, nil
}

func (s *atomicPairingStore) FindByUser(_ context.Context, userID uuid.UUID) (*model.ActiveVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicleID, ok := s.byUser[userID]
	if !ok {
		return nil, nil
	}
	return &model.ActiveVehicle{UserID: userID, VehicleID: vehicleID}, nil
}

func (s *atomicPairingStore) CreateLink(_ context.Context, userID, vehicleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[userID]; ok {
		return repository.ErrLinkExists
	}
	if _, ok := s.byVeh[vehicleID]; ok {
		return repository.ErrLinkExists
	}
	s.byUser[userID] = vehicleID
	s.byVeh[vehicleID] = userID
	return nil
}

func (s *atomicPairingStore) DeleteLink(_ context.Context, userID, vehicleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byUser[userID] != vehicleID {
		return repository.ErrLinkNotFound
	}
	delete(s.byUser, userID)
	delete(s.byVeh, vehicleID)
	return nil
}

func TestPairingService_ConcurrentPair(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tokens := newTestTokens(clock)
	vehicle := testVehicle("SCOOT-42")

	vehicleRepo := new(mockVehicleRepo)
	vehicleRepo.On("FindByCode", mock.Anything, "SCOOT-42").Return(vehicle, nil)

	store := newAtomicPairingStore()
	svc := NewPairingService(tokens, vehicleRepo, store, nil)

	const attempts = 16
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		credential := issueCredential(tokens, uuid.New())
		wg.Add(1)
		go func(i int, credential string) {
			defer wg.Done()
			errs[i] = svc.Pair(ctx, credential, "SCOOT-42")
		}(i, credential)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := apperrors.GetCode(err)
		assert.Contains(t, []apperrors.ErrorCode{
			apperrors.ErrCodeUserAlreadyPaired,
			apperrors.ErrCodeVehicleAlreadyPaired,
		}, code)
	}
	assert.Equal(t, 1, succeeded, "exactly one pairing attempt should win")
}
