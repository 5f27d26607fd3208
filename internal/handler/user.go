package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/middleware"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Register)
	r.Post("/login", h.Login)
	r.Get("/me", h.Me)

	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Request body is not valid JSON"))
		return
	}

	user, err := h.userService.Register(r.Context(), model.RegisterUserParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// POST /v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Request body is not valid JSON"))
		return
	}

	token, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Msg("login failed")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	credential := middleware.ExtractCredential(r)

	details, err := h.userService.FetchDetails(r.Context(), credential)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}
