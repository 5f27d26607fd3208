package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/voltride/rental-server-go/internal/errors"
	"github.com/voltride/rental-server-go/internal/middleware"
	"github.com/voltride/rental-server-go/internal/model"
	"github.com/voltride/rental-server-go/internal/service"
)

type VehicleHandler struct {
	pairingService     *service.PairingService
	reservationService *service.ReservationService
}

func NewVehicleHandler(pairingService *service.PairingService, reservationService *service.ReservationService) *VehicleHandler {
	return &VehicleHandler{
		pairingService:     pairingService,
		reservationService: reservationService,
	}
}

func (h *VehicleHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/pair", h.Pair)
	r.Delete("/pair", h.Unpair)
	r.Post("/command", h.Command)

	return r
}

type pairRequest struct {
	Code string `json:"code"`
}

type commandRequest struct {
	Code    string               `json:"code"`
	Command model.VehicleCommand `json:"command"`
}

// POST /v1/vehicles/pair
func (h *VehicleHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Request body is not valid JSON"))
		return
	}

	credential := middleware.ExtractCredential(r)
	if err := h.pairingService.Pair(r.Context(), credential, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paired"})
}

// DELETE /v1/vehicles/pair
func (h *VehicleHandler) Unpair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Request body is not valid JSON"))
		return
	}

	credential := middleware.ExtractCredential(r)
	if err := h.pairingService.Unpair(r.Context(), credential, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unpaired"})
}

// POST /v1/vehicles/command
func (h *VehicleHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Request body is not valid JSON"))
		return
	}

	credential := middleware.ExtractCredential(r)
	reservation, err := h.reservationService.SendCommand(r.Context(), credential, req.Code, req.Command)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}
