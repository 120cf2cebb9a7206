package models

import "time"

// AlertLevel grades notification severity.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "INFO"
	AlertWarning AlertLevel = "WARNING"
	AlertError   AlertLevel = "ERROR"
)

// Alert is a process-wide notification shown to administrators.
type Alert struct {
	ID        string     `db:"id" json:"id"`
	Level     AlertLevel `db:"level" json:"level"`
	Source    string     `db:"source" json:"source"`
	Message   string     `db:"message" json:"message"`
	Dismissed bool       `db:"dismissed" json:"dismissed"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
