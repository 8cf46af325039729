package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/domain/model/kernel"

	"github.com/robfig/cron/v3"
)

// DefaultUrgencySchedule runs the sweep every 15 seconds.
const DefaultUrgencySchedule = "*/15 * * * * *"

type (
	BoardSource interface {
		Board() projection.Board
	}

	BoardObserver interface {
		ObserveBoard(board projection.Board, now time.Time)
	}
)

// UrgencySweepJob re-evaluates urgency on a schedule. Urgency depends on the
// clock, so a board that receives no snapshot still ages; the sweep refreshes
// the board gauges and logs each order once when it turns urgent.
type UrgencySweepJob struct {
	source   BoardSource
	observer BoardObserver
	clock    kernel.Clock
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	flagged map[kernel.UUID]struct{}
	stale   bool
}

func NewUrgencySweepJob(
	source BoardSource,
	observer BoardObserver,
	clock kernel.Clock,
	schedule string,
	logger *slog.Logger,
) *UrgencySweepJob {
	if schedule == "" {
		schedule = DefaultUrgencySchedule
	}
	return &UrgencySweepJob{
		source:   source,
		observer: observer,
		clock:    clock,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "urgency_sweep_job"),
		flagged:  make(map[kernel.UUID]struct{}),
	}
}

func (j *UrgencySweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Sweep(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Urgency sweep job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *UrgencySweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Urgency sweep job stopped")
}

// Sweep runs one pass and returns the orders that turned urgent in it.
func (j *UrgencySweepJob) Sweep(ctx context.Context) []kernel.UUID {
	now := j.clock.Now()
	board := j.source.Board()
	if j.observer != nil {
		j.observer.ObserveBoard(board, now)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if board.Stale && !j.stale {
		j.logger.WarnContext(ctx, "Board is stale, live feed disrupted", "seq", board.Seq)
	}
	j.stale = board.Stale

	urgent := board.Urgent(now)
	current := make(map[kernel.UUID]struct{}, len(urgent))
	var fresh []kernel.UUID
	for _, o := range urgent {
		current[o.ID()] = struct{}{}
		if _, seen := j.flagged[o.ID()]; seen {
			continue
		}
		fresh = append(fresh, o.ID())
		j.logger.WarnContext(ctx, "Order is urgent",
			"order_id", o.ID().String(),
			"card_id", o.CardID(),
			"location", o.Location(),
			"waiting", now.Sub(o.Timestamp()).Round(time.Second).String(),
		)
	}
	j.flagged = current
	return fresh
}
