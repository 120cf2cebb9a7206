package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
)

type trainingStatusClient interface {
	Status(ctx context.Context) (*models.TrainingStatus, error)
}

type alertRaiser interface {
	Raise(ctx context.Context, level models.AlertLevel, source, message string) error
}

type trainingGauge interface {
	SetTrainingRunning(running bool)
}

// TrainingWatcher polls the recognizer's training status and raises a
// single alert on each running-to-idle transition. Poll failures are
// logged and skipped; they never flip the latch, so a flaky upstream
// cannot fire duplicate alerts. Once the idle edge fires the loop
// parks itself within one tick; Arm wakes it for the next run.
type TrainingWatcher struct {
	client   trainingStatusClient
	alerts   alertRaiser
	metrics  trainingGauge
	interval time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	wasRunning bool
	lastSeen   *models.TrainingStatus

	base   context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTrainingWatcher constructs TrainingWatcher.
func NewTrainingWatcher(client trainingStatusClient, alerts alertRaiser, metrics trainingGauge, interval time.Duration, logger *zap.Logger) *TrainingWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingWatcher{client: client, alerts: alerts, metrics: metrics, interval: interval, logger: logger}
}

// Start launches the polling goroutine and keeps the lifecycle context
// so later training runs can re-arm the loop after it parks.
func (w *TrainingWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base = ctx
	w.arm()
}

// Arm resumes polling for a fresh training run. A loop that is still
// live keeps going; a watcher that was never started stays off.
func (w *TrainingWatcher) Arm() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.base == nil {
		return
	}
	w.arm()
}

func (w *TrainingWatcher) arm() {
	if w.done != nil {
		select {
		case <-w.done:
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(w.base)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.wasRunning = false
	go w.run(ctx, done)
	w.logger.Info("training watcher armed", zap.Duration("interval", w.interval))
}

// Stop halts polling and waits for the goroutine to exit. The watcher
// reacts within one tick.
func (w *TrainingWatcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.logger.Info("training watcher stopped")
}

func (w *TrainingWatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.poll(ctx) {
				w.logger.Info("training idle, watcher parked until the next run")
				return
			}
		}
	}
}

// poll takes one status sample. It reports true once the idle edge has
// fired so run can park the loop.
func (w *TrainingWatcher) poll(ctx context.Context) bool {
	status, err := w.client.Status(ctx)
	if err != nil {
		w.logger.Debug("training status poll failed", zap.Error(err))
		return false
	}

	running := status.Status == models.TrainingRunning
	if w.metrics != nil {
		w.metrics.SetTrainingRunning(running)
	}

	w.mu.Lock()
	finished := w.wasRunning && !running
	last := w.lastSeen
	w.wasRunning = running
	w.lastSeen = status
	w.mu.Unlock()

	if !finished {
		return false
	}

	message := "face recognition training finished"
	if status.Message != "" {
		message = fmt.Sprintf("%s: %s", message, status.Message)
	} else if last != nil && last.Message != "" {
		message = fmt.Sprintf("%s: %s", message, last.Message)
	}
	if err := w.alerts.Raise(ctx, models.AlertInfo, "facerec", message); err != nil {
		w.logger.Warn("failed to raise training alert", zap.Error(err))
	}
	return true
}
