package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

func newRecognizerStub(t *testing.T, state models.TrainingState) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/training_status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"` + string(state) + `","progress":40,"message":"epoch 2/5"}`))
	})
	mux.HandleFunc("/api/training_metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accuracy":0.94,"sample_count":1040,"student_count":52}`))
	})
	mux.HandleFunc("/api/students", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"s1","name":"Ada Lovelace","image_count":20}]`))
	})
	mux.HandleFunc("/api/delete_student/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/train", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Fresh bool `json:"fresh"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"training started"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFaceRecStatusAndMetrics(t *testing.T) {
	server := newRecognizerStub(t, models.TrainingRunning)
	svc := NewFaceRecService(FaceRecConfig{BaseURL: server.URL}, zap.NewNop())
	ctx := context.Background()

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TrainingRunning, status.Status)
	assert.Equal(t, 40, status.Progress)

	metrics, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.94, metrics.Accuracy, 1e-9)
	assert.Equal(t, 52, metrics.StudentCount)

	students, err := svc.Students(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada Lovelace", students[0].Name)
}

func TestFaceRecTrainConflictsWhileRunning(t *testing.T) {
	server := newRecognizerStub(t, models.TrainingRunning)
	svc := NewFaceRecService(FaceRecConfig{BaseURL: server.URL}, zap.NewNop())

	_, err := svc.Train(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestFaceRecTrainStartsWhenIdle(t *testing.T) {
	server := newRecognizerStub(t, models.TrainingIdle)
	svc := NewFaceRecService(FaceRecConfig{BaseURL: server.URL}, zap.NewNop())

	resp, err := svc.Train(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	require.NoError(t, svc.DeleteStudent(context.Background(), "s1"))
}

func TestFaceRecClientHitsRecognizerRoutes(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"idle","success":true}`))
	}))
	t.Cleanup(server.Close)

	svc := NewFaceRecService(FaceRecConfig{BaseURL: server.URL}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Status(ctx)
	require.NoError(t, err)
	_, err = svc.Metrics(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteStudent(ctx, "s1"))
	_, err = svc.Train(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /api/training_status",
		"GET /api/training_metrics",
		"DELETE /api/delete_student/s1",
		"GET /api/training_status", // Train checks for a running job first.
		"POST /api/train",
	}, paths)
}

func TestFaceRecUpstreamFailuresMapToUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	svc := NewFaceRecService(FaceRecConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := svc.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)

	// Unreachable host.
	server.Close()
	_, err = svc.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
