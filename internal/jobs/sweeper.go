package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voltride/rental-server-go/internal/model"
)

// openReservationLister is the slice of the ledger the sweeper needs.
type openReservationLister interface {
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
}

// StaleRideSweeper periodically surfaces reservations that have been open
// longer than the threshold. Abandoned scooters are an ops problem, not a
// state transition: the sweeper only reports, it never mutates the ledger.
type StaleRideSweeper struct {
	ledger    openReservationLister
	threshold time.Duration
	interval  time.Duration
	done      chan struct{}
}

func NewStaleRideSweeper(ledger openReservationLister, threshold, interval time.Duration) *StaleRideSweeper {
	return &StaleRideSweeper{
		ledger:    ledger,
		threshold: threshold,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *StaleRideSweeper) Start() {
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Dur("threshold", j.threshold).
		Msg("stale ride sweeper started")
}

func (j *StaleRideSweeper) Stop() {
	close(j.done)
	log.Info().Msg("stale ride sweeper stopped")
}

func (j *StaleRideSweeper) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			select {
			case <-j.done:
				return
			default:
			}
			j.sweep()
		}
	}
}

func (j *StaleRideSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.threshold)

	stale, err := j.ledger.ListOpenBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("stale ride sweep failed")
		return
	}

	for _, res := range stale {
		log.Warn().
			Str("reservationId", res.ID.String()).
			Str("userId", res.UserID.String()).
			Str("vehicleId", res.VehicleID.String()).
			Time("startTime", res.StartTime).
			Msg("reservation open past threshold")
	}

	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("stale ride sweep complete")
	}
}
