package models

import (
	"time"

	"github.com/lib/pq"
)

// ProposalStatus enumerates scheduler proposal states.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// ScheduleProposal is a candidate timetable produced by the external
// scheduler, reviewed and optionally applied by staff.
type ScheduleProposal struct {
	ID        string         `db:"id" json:"id"`
	SessionID string         `db:"session_id" json:"session_id"`
	Status    ProposalStatus `db:"status" json:"status"`
	Metadata  []byte         `db:"metadata" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ProposalSlot is one proposed timetable placement.
type ProposalSlot struct {
	ID              string         `db:"id" json:"id"`
	ProposalID      string         `db:"proposal_id" json:"proposal_id"`
	BatchID         string         `db:"batch_id" json:"batch_id"`
	BatchName       string         `db:"batch_name" json:"batch_name"`
	SessionCourseID string         `db:"session_course_id" json:"session_course_id"`
	CourseName      string         `db:"course_name" json:"course_name"`
	TeacherID       string         `db:"teacher_id" json:"teacher_id"`
	ClassroomID     *string        `db:"classroom_id" json:"classroom_id,omitempty"`
	RoomName        *string        `db:"room_name" json:"room_name,omitempty"`
	DaysOfWeek      pq.StringArray `db:"days_of_week" json:"days_of_week"`
	StartTime       string         `db:"start_time" json:"start_time"`
	EndTime         string         `db:"end_time" json:"end_time"`
}

// ProposalDetail groups slots per batch for display.
type ProposalDetail struct {
	Proposal ScheduleProposal `json:"proposal"`
	Batches  []ProposalBatch  `json:"batches"`
}

// ProposalBatch is the per-batch slice of a proposal.
type ProposalBatch struct {
	BatchID   string         `json:"batch_id"`
	BatchName string         `json:"batch_name"`
	Slots     []ProposalSlot `json:"slots"`
}

// ApplyResult summarises applying a proposal.
type ApplyResult struct {
	ProposalID       string `json:"proposal_id"`
	SchedulesCreated int    `json:"schedules_created"`
}
