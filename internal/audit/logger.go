package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess    EventType = "login_success"
	EventLoginFailure    EventType = "login_failure"
	EventUserRegister    EventType = "user_register"
	EventVehiclePair     EventType = "vehicle_pair"
	EventVehicleUnpair   EventType = "vehicle_unpair"
	EventRideStart       EventType = "ride_start"
	EventRideEnd         EventType = "ride_end"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventAuthFailure     EventType = "auth_failure"
)

type Event struct {
	Type      EventType
	UserID    string
	VehicleID string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "rental").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.VehicleID != "" {
		logger = logger.With().Str("vehicle_id", event.VehicleID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}
	if len(event.Details) > 0 {
		logger = logger.With().Fields(event.Details).Logger()
	}

	logger.WithLevel(levelFor(event.Type)).Msg("audit event")
}

// FromRequest fills the network fields from an HTTP request.
func FromRequest(r *http.Request, event Event) Event {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	return event
}

func levelFor(t EventType) zerolog.Level {
	switch t {
	case EventLoginFailure, EventAuthFailure, EventRateLimitExceed:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
