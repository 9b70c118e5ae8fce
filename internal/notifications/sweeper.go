package notifications

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Expirer deletes notifications past their expiry
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes expired notifications
type Sweeper struct {
	expirer  Expirer
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	done     chan struct{}
	started  atomic.Bool
}

// NewSweeper creates a sweeper running every interval. With a zero or
// negative interval Start does nothing and only RunOnce sweeps.
func NewSweeper(expirer Expirer, interval time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		expirer:  expirer,
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Periodic reports whether Start runs a background loop
func (s *Sweeper) Periodic() bool {
	return s.interval > 0
}

// Start begins the periodic sweep
func (s *Sweeper) Start() {
	if !s.Periodic() {
		logger.Log.Info("Periodic notification sweep disabled")
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	logger.Log.Info("Starting notification sweeper", zap.Duration("interval", s.interval))
	go s.run()
}

// Stop cancels the sweeper and waits for an in-flight sweep to finish
func (s *Sweeper) Stop() {
	logger.Log.Info("Stopping notification sweeper")
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
}

func (s *Sweeper) run() {
	defer close(s.done)

	// Run immediately on startup
	s.RunOnce(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// RunOnce performs a single sweep and returns the number of deleted rows
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "notifications.sweep")
	start := time.Now()
	deleted, err := s.expirer.DeleteExpired(ctx)
	span.SetAttributes(attribute.Int64("notifications.deleted", deleted))
	telemetry.EndSpan(span, err)
	if err != nil {
		logger.Log.Error("Notification sweep failed", zap.Error(err))
		return 0, err
	}

	metrics.Get().NotificationsSweptTotal.Add(float64(deleted))
	logger.Log.Info("Notification sweep complete",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}
