package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/voltride/rental-server-go/internal/audit"
	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/repository"
	"github.com/voltride/rental-server-go/internal/util"
)

type UserService struct {
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
	pairingRepo repository.PairingRepository
	tokens      *TokenService
	bcryptCost  int
}

func NewUserService(
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	pairingRepo repository.PairingRepository,
	tokens *TokenService,
	bcryptCost int,
) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:    userRepo,
		vehicleRepo: vehicleRepo,
		pairingRepo: pairingRepo,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
	}
}

// Register validates and creates a new user. Validation runs before any
// state is touched.
func (s *UserService) Register(ctx context.Context, params model.RegisterUserParams) (*model.User, error) {
	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("check email: %w", err))
	}
	if exists {
		return nil, apperrors.EmailAlreadyRegistered()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	user, err := s.userRepo.Create(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(hash),
		Name:         params.Name,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, apperrors.EmailAlreadyRegistered()
	}
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create user: %w", err))
	}

	audit.Log(ctx, audit.Event{Type: audit.EventUserRegister, UserID: user.ID.String()})
	log.Info().Str("userId", user.ID.String()).Msg("user registered")

	return user, nil
}

// Authenticate checks credentials and issues a bearer token. An unknown
// email and a wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.Token, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		audit.Log(ctx, audit.Event{Type: audit.EventLoginFailure})
		return nil, apperrors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		audit.Log(ctx, audit.Event{Type: audit.EventLoginFailure, UserID: user.ID.String()})
		return nil, apperrors.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token").WithCause(err)
	}

	audit.Log(ctx, audit.Event{Type: audit.EventLoginSuccess, UserID: user.ID.String()})
	return token, nil
}

// FetchDetails resolves the credential and returns the user together with
// the telemetry snapshot of their currently paired vehicle, if any.
func (s *UserService) FetchDetails(ctx context.Context, credential string) (*model.UserWithVehicle, error) {
	userID, err := s.tokens.Resolve(credential)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("fetch user %s: %w", userID, err))
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	details := &model.UserWithVehicle{User: *user}

	link, err := s.pairingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("fetch pairing for %s: %w", userID, err))
	}
	if link != nil {
		vehicle, err := s.vehicleRepo.Fetch(ctx, link.VehicleID)
		if err != nil {
			return nil, apperrors.Database(fmt.Errorf("fetch vehicle %s: %w", link.VehicleID, err))
		}
		details.ActiveVehicle = vehicle
	}

	return details, nil
}

func validateRegistration(params model.RegisterUserParams) error {
	if util.IsBlank(params.Name) {
		return apperrors.MissingRequired("Name")
	}
	if !util.IsValidEmail(params.Email) {
		return apperrors.InvalidInput("email", "invalid format")
	}
	if util.IsBlank(params.Password) {
		return apperrors.MissingRequired("Password")
	}
	return nil
}
