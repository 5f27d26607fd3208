package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/repository"
)

// Mock user repository
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, params repository.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Mock vehicle repository
type mockVehicleRepo struct {
	mock.Mock
}

func (m *mockVehicleRepo) FindByCode(ctx context.Context, code string) (*model.Vehicle, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) Fetch(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

// Mock pairing repository
type mockPairingRepo struct {
	mock.Mock
}

func (m *mockPairingRepo) ExistsActiveByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPairingRepo) ExistsActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vehicleID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPairingRepo) ExistsActiveFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, vehicleID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPairingRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*model.ActiveVehicle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActiveVehicle), args.Error(1)
}

func (m *mockPairingRepo) CreateLink(ctx context.Context, userID, vehicleID uuid.UUID) error {
	args := m.Called(ctx, userID, vehicleID)
	return args.Error(0)
}

func (m *mockPairingRepo) DeleteLink(ctx context.Context, userID, vehicleID uuid.UUID) error {
	args := m.Called(ctx, userID, vehicleID)
	return args.Error(0)
}

// Mock reservation repository
type mockReservationRepo struct {
	mock.Mock
}

func (m *mockReservationRepo) ExistsOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, vehicleID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReservationRepo) FetchOpenFor(ctx context.Context, userID, vehicleID uuid.UUID) (*model.Reservation, error) {
	args := m.Called(ctx, userID, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockReservationRepo) Create(ctx context.Context, params model.CreateReservationParams) (*model.Reservation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockReservationRepo) Close(ctx context.Context, id uuid.UUID, endTime time.Time, endingLocation model.Coordinates, cost decimal.Decimal) (*model.Reservation, error) {
	args := m.Called(ctx, id, endTime, endingLocation, cost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockReservationRepo) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reservation), args.Error(1)
}

// Mock ride publisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, data any) error {
	args := m.Called(ctx, eventType, data)
	return args.Error(0)
}

// fakeClock returns a fixed instant and can be advanced between calls.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestTokens(clock Clock) *TokenService {
	return NewTokenService("test-secret-not-for-production", time.Hour, clock)
}

func issueCredential(tokens *TokenService, userID uuid.UUID) string {
	token, err := tokens.Issue(userID)
	if err != nil {
		panic(err)
	}
	return token.Token
}

func testVehicle(code string) *model.Vehicle {
	return &model.Vehicle{
		ID:             uuid.New(),
		Code:           code,
		StateOfCharge:  0.82,
		Latitude:       52.5096,
		Longitude:      13.3765,
		PoweredOn:      false,
		Odometer:       1204.5,
		EstimatedRange: 38.2,
		UpdatedAt:      time.Date(2026, 8, 1, 11, 55, 0, 0, time.UTC),
	}
}
