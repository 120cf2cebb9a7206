package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// ScheduleRepository manages timetable entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, session_course_id, batch_id, teacher_id, classroom_id, days_of_week,
	start_time, end_time, start_date, end_date, is_active, proposal_id, created_at, updated_at`

// List returns schedules matching the filter plus total count.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.CourseSchedule, int, error) {
	base := "FROM course_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_course_id IN (SELECT id FROM session_courses WHERE session_id = $%d)", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var schedules []models.CourseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID fetches a schedule by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.CourseSchedule, error) {
	query := "SELECT " + scheduleColumns + " FROM course_schedules WHERE id = $1"
	var schedule models.CourseSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.CourseSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO course_schedules (id, session_course_id, batch_id, teacher_id, classroom_id, days_of_week,
		start_time, end_time, start_date, end_date, is_active, proposal_id, created_at, updated_at)
		VALUES (:id, :session_course_id, :batch_id, :teacher_id, :classroom_id, :days_of_week,
		:start_time, :end_time, :start_date, :end_date, :is_active, :proposal_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies an existing schedule entry.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.CourseSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_schedules SET session_course_id = :session_course_id, batch_id = :batch_id,
		teacher_id = :teacher_id, classroom_id = :classroom_id, days_of_week = :days_of_week,
		start_time = :start_time, end_time = :end_time, start_date = :start_date, end_date = :end_date,
		is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_schedules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
