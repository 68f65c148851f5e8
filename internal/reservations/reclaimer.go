package reservations

import (
	"context"
	"time"

	"reservio/pkg/logger"
)

// Reclaimer is the background sweep that returns capacity held by lapsed
// PENDING reservations. It is the only thing that expires holds; the API
// never rejects a confirm just because the clock ran out.
type Reclaimer struct {
	service  Service
	interval time.Duration
	done     chan struct{}
	log      *logger.Logger
}

func NewReclaimer(service Service, interval time.Duration) *Reclaimer {
	return &Reclaimer{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
		log:      logger.GetDefault(),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to end it.
func (rc *Reclaimer) Start(ctx context.Context) {
	go rc.run(ctx)
	rc.log.Info("Started hold reclaimer", "interval", rc.interval.String())
}

// Stop ends the sweep loop.
func (rc *Reclaimer) Stop() {
	close(rc.done)
	rc.log.Info("Stopped hold reclaimer")
}

func (rc *Reclaimer) run(ctx context.Context) {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.sweep(ctx)
		case <-rc.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (rc *Reclaimer) sweep(ctx context.Context) {
	start := time.Now()

	processed, err := rc.service.ProcessExpiredHolds(ctx)
	if err != nil {
		rc.log.ErrorWithContext(ctx, "hold sweep failed", err, nil)
		return
	}

	if processed > 0 {
		rc.log.LogSweepPass(ctx, "hold_expiry", processed, 0, time.Since(start))
	}
}
