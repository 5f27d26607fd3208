package handler

import (
	"net/http"
	"time"

	"github.com/voltride/rental-server-go/internal/httputil"
	"github.com/voltride/rental-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// reservationResponse flattens a ledger record for transport, including the
// location snapshots the model keeps as raw columns.
type reservationResponse struct {
	ID               string             `json:"id"`
	UserID           string             `json:"userId"`
	VehicleID        string             `json:"vehicleId"`
	StartTime        string             `json:"startTime"`
	EndTime          *string            `json:"endTime,omitempty"`
	StartingLocation model.Coordinates  `json:"startingLocation"`
	EndingLocation   *model.Coordinates `json:"endingLocation,omitempty"`
	Cost             *string            `json:"cost,omitempty"`
}

func toReservationResponse(res *model.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:               res.ID.String(),
		UserID:           res.UserID.String(),
		VehicleID:        res.VehicleID.String(),
		StartTime:        res.StartTime.UTC().Format(time.RFC3339),
		StartingLocation: res.StartingLocation(),
		EndingLocation:   res.EndingLocation(),
	}
	if res.EndTime != nil {
		endTime := res.EndTime.UTC().Format(time.RFC3339)
		resp.EndTime = &endTime
	}
	if res.Cost != nil {
		cost := res.Cost.StringFixed(2)
		resp.Cost = &cost
	}
	return resp
}
