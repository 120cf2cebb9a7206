package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// ChatRepository manages chat groups and their messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs a ChatRepository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatGroupColumns = "id, type, subject_id, name, created_at"

// ListGroups returns chat groups, optionally by type.
func (r *ChatRepository) ListGroups(ctx context.Context, groupType models.ChatGroupType) ([]models.ChatGroup, error) {
	query := "SELECT " + chatGroupColumns + " FROM chat_groups"
	var args []interface{}
	if groupType != "" {
		query += " WHERE type = $1"
		args = append(args, groupType)
	}
	query += " ORDER BY name"

	var groups []models.ChatGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list chat groups: %w", err)
	}
	return groups, nil
}

// FindGroup fetches one chat group.
func (r *ChatRepository) FindGroup(ctx context.Context, id string) (*models.ChatGroup, error) {
	query := "SELECT " + chatGroupColumns + " FROM chat_groups WHERE id = $1"
	var group models.ChatGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindGroupBySubject fetches a group by its subject (batch or course).
func (r *ChatRepository) FindGroupBySubject(ctx context.Context, groupType models.ChatGroupType, subjectID string) (*models.ChatGroup, error) {
	query := "SELECT " + chatGroupColumns + " FROM chat_groups WHERE type = $1 AND subject_id = $2"
	var group models.ChatGroup
	if err := r.db.GetContext(ctx, &group, query, groupType, subjectID); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup inserts a chat group.
func (r *ChatRepository) CreateGroup(ctx context.Context, group *models.ChatGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO chat_groups (id, type, subject_id, name, created_at)
		VALUES (:id, :type, :subject_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create chat group: %w", err)
	}
	return nil
}

// ListMessages pages a group's history, newest first. A non-zero
// before timestamp fetches the page preceding it.
func (r *ChatRepository) ListMessages(ctx context.Context, groupID string, before time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, group_id, sender_id, sender_name, body, sent_at
		FROM messages WHERE group_id = $1`
	args := []interface{}{groupID}
	if !before.IsZero() {
		query += " AND sent_at < $2"
		args = append(args, before)
	}
	query += fmt.Sprintf(" ORDER BY sent_at DESC LIMIT %d", limit)

	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// CreateMessage appends a message to a group.
func (r *ChatRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}

	const query = `INSERT INTO messages (id, group_id, sender_id, sender_name, body, sent_at)
		VALUES (:id, :group_id, :sender_id, :sender_name, :body, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}
