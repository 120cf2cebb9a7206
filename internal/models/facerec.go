package models

import "time"

// TrainingState reports the external recognizer job state.
type TrainingState string

const (
	TrainingIdle    TrainingState = "idle"
	TrainingRunning TrainingState = "running"
)

// TrainingStatus is the external service's status payload.
type TrainingStatus struct {
	Status   TrainingState `json:"status"`
	Progress int           `json:"progress"`
	Message  string        `json:"message,omitempty"`
}

// TrainingMetrics is the external service's model metrics payload.
type TrainingMetrics struct {
	Accuracy     float64    `json:"accuracy"`
	SampleCount  int        `json:"sample_count"`
	StudentCount int        `json:"student_count"`
	TrainedAt    *time.Time `json:"trained_at,omitempty"`
}

// FaceStudent is a student registered with the recognizer.
type FaceStudent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageCount int    `json:"image_count"`
}

// TrainResponse acknowledges a training request.
type TrainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
