package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

// FaceRecConfig points at the external recognizer.
type FaceRecConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FaceRecService proxies the external face recognition service. The
// upstream owns training and the model; this side only relays calls
// and normalizes failures.
type FaceRecService struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewFaceRecService constructs FaceRecService.
func NewFaceRecService(config FaceRecConfig, logger *zap.Logger) *FaceRecService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &FaceRecService{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: config.Timeout},
		logger:  logger,
	}
}

// Status reports whether a training run is in flight.
func (s *FaceRecService) Status(ctx context.Context) (*models.TrainingStatus, error) {
	var status models.TrainingStatus
	if err := s.call(ctx, http.MethodGet, "/api/training_status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Metrics returns the current model's quality figures.
func (s *FaceRecService) Metrics(ctx context.Context) (*models.TrainingMetrics, error) {
	var metrics models.TrainingMetrics
	if err := s.call(ctx, http.MethodGet, "/api/training_metrics", &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// Students lists the identities registered with the recognizer.
func (s *FaceRecService) Students(ctx context.Context) ([]models.FaceStudent, error) {
	var students []models.FaceStudent
	if err := s.call(ctx, http.MethodGet, "/api/students", &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Train asks the upstream to start a training run, optionally from
// scratch. A run already in flight is a conflict, not a failure.
func (s *FaceRecService) Train(ctx context.Context, fresh bool) (*models.TrainResponse, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status.Status == models.TrainingRunning {
		return nil, appErrors.Clone(appErrors.ErrConflict, "training already running")
	}

	var resp models.TrainResponse
	if err := s.callWithBody(ctx, http.MethodPost, "/api/train", map[string]bool{"fresh": fresh}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteStudent removes an identity and its images from the recognizer.
func (s *FaceRecService) DeleteStudent(ctx context.Context, id string) error {
	return s.call(ctx, http.MethodDelete, "/api/delete_student/"+url.PathEscape(id), nil)
}

func (s *FaceRecService) call(ctx context.Context, method, path string, out interface{}) error {
	return s.callWithBody(ctx, method, path, nil, out)
}

func (s *FaceRecService) callWithBody(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode recognizer request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build recognizer request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("recognizer unreachable", zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "face recognition service unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("recognizer returned %d for %s", resp.StatusCode, path)
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "face recognition service error")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed recognizer response")
	}
	return nil
}
