package models

import "time"

// ChatGroupType distinguishes batch-wide and course-scoped groups.
type ChatGroupType string

const (
	ChatGroupBatch  ChatGroupType = "BATCH"
	ChatGroupCourse ChatGroupType = "COURSE"
)

// ChatGroup is a conversation bound to a batch or course.
type ChatGroup struct {
	ID        string        `db:"id" json:"id"`
	Type      ChatGroupType `db:"type" json:"type"`
	SubjectID string        `db:"subject_id" json:"subject_id"`
	Name      string        `db:"name" json:"name"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Message is a single chat entry.
type Message struct {
	ID         string    `db:"id" json:"id"`
	GroupID    string    `db:"group_id" json:"group_id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	SenderName string    `db:"sender_name" json:"sender_name"`
	Body       string    `db:"body" json:"body"`
	SentAt     time.Time `db:"sent_at" json:"sent_at"`
}
