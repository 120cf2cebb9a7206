package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
)

type scriptedStatusClient struct {
	mu      sync.Mutex
	script  []interface{}
	current int
	calls   int
}

func (c *scriptedStatusClient) Status(ctx context.Context) (*models.TrainingStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.current >= len(c.script) {
		return &models.TrainingStatus{Status: models.TrainingIdle}, nil
	}
	step := c.script[c.current]
	c.current++
	switch v := step.(type) {
	case *models.TrainingStatus:
		return v, nil
	case error:
		return nil, v
	default:
		return nil, fmt.Errorf("bad script step")
	}
}

func (c *scriptedStatusClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingAlerts struct {
	mu     sync.Mutex
	raised []models.Alert
}

func (a *recordingAlerts) Raise(ctx context.Context, level models.AlertLevel, source, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.raised = append(a.raised, models.Alert{Level: level, Source: source, Message: message})
	return nil
}

func (a *recordingAlerts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.raised)
}

func TestTrainingWatcherAlertsOnceOnCompletion(t *testing.T) {
	client := &scriptedStatusClient{script: []interface{}{
		&models.TrainingStatus{Status: models.TrainingRunning, Progress: 40},
		&models.TrainingStatus{Status: models.TrainingRunning, Progress: 90},
		&models.TrainingStatus{Status: models.TrainingIdle, Message: "trained 52 students"},
		&models.TrainingStatus{Status: models.TrainingIdle},
		&models.TrainingStatus{Status: models.TrainingIdle},
	}}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, time.Second, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		w.poll(ctx)
	}

	require.Equal(t, 1, alerts.count())
	assert.Contains(t, alerts.raised[0].Message, "trained 52 students")
	assert.Equal(t, "facerec", alerts.raised[0].Source)
}

func TestTrainingWatcherIgnoresPollErrors(t *testing.T) {
	client := &scriptedStatusClient{script: []interface{}{
		&models.TrainingStatus{Status: models.TrainingRunning},
		fmt.Errorf("connection refused"),
		fmt.Errorf("connection refused"),
		&models.TrainingStatus{Status: models.TrainingIdle},
	}}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, time.Second, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		w.poll(ctx)
	}

	// Failed polls keep the latch; the eventual idle still fires once.
	require.Equal(t, 1, alerts.count())
}

func TestTrainingWatcherNeverAlertsWhileIdle(t *testing.T) {
	client := &scriptedStatusClient{}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, time.Second, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		w.poll(ctx)
	}
	assert.Equal(t, 0, alerts.count())
}

func waitParked(t *testing.T, w *TrainingWatcher) {
	t.Helper()
	require.Eventually(t, func() bool {
		w.mu.Lock()
		done := w.done
		w.mu.Unlock()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond, "watcher kept polling past the idle edge")
}

func TestTrainingWatcherParksAfterIdleEdge(t *testing.T) {
	client := &scriptedStatusClient{script: []interface{}{
		&models.TrainingStatus{Status: models.TrainingRunning},
		&models.TrainingStatus{Status: models.TrainingRunning},
		&models.TrainingStatus{Status: models.TrainingIdle},
	}}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, 5*time.Millisecond, zap.NewNop())

	w.Start(context.Background())
	waitParked(t, w)

	polls := client.callCount()
	assert.LessOrEqual(t, polls, 4)

	// Ten more tick intervals with no further status calls.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, polls, client.callCount())
	assert.Equal(t, 1, alerts.count())
}

func TestTrainingWatcherArmRestartsAfterPark(t *testing.T) {
	client := &scriptedStatusClient{script: []interface{}{
		&models.TrainingStatus{Status: models.TrainingRunning},
		&models.TrainingStatus{Status: models.TrainingIdle},
		&models.TrainingStatus{Status: models.TrainingRunning},
		&models.TrainingStatus{Status: models.TrainingIdle},
	}}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, time.Millisecond, zap.NewNop())

	w.Start(context.Background())
	waitParked(t, w)
	require.Equal(t, 1, alerts.count())

	w.Arm()
	waitParked(t, w)
	require.Equal(t, 2, alerts.count())

	w.Stop()
}

func TestTrainingWatcherStopUnblocksPromptly(t *testing.T) {
	client := &scriptedStatusClient{}
	alerts := &recordingAlerts{}
	w := NewTrainingWatcher(client, alerts, nil, 5*time.Millisecond, zap.NewNop())

	w.Start(context.Background())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop in time")
	}
}
