package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type chatRepository interface {
	ListGroups(ctx context.Context, groupType models.ChatGroupType) ([]models.ChatGroup, error)
	FindGroup(ctx context.Context, id string) (*models.ChatGroup, error)
	FindGroupBySubject(ctx context.Context, groupType models.ChatGroupType, subjectID string) (*models.ChatGroup, error)
	CreateGroup(ctx context.Context, group *models.ChatGroup) error
	ListMessages(ctx context.Context, groupID string, before time.Time, limit int) ([]models.Message, error)
	CreateMessage(ctx context.Context, message *models.Message) error
}

// ChatConfig tunes messaging limits.
type ChatConfig struct {
	PageSize    int
	MaxBodySize int
}

// PostMessageRequest appends one message to a group.
type PostMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// ChatService manages batch and course chat groups.
type ChatService struct {
	repo      chatRepository
	config    ChatConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChatService constructs ChatService.
func NewChatService(repo chatRepository, config ChatConfig, validate *validator.Validate, logger *zap.Logger) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PageSize <= 0 {
		config.PageSize = 50
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 2000
	}
	return &ChatService{repo: repo, config: config, validator: validate, logger: logger}
}

// ListGroups returns chat groups, optionally by type.
func (s *ChatService) ListGroups(ctx context.Context, groupType models.ChatGroupType) ([]models.ChatGroup, error) {
	groups, err := s.repo.ListGroups(ctx, groupType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chat groups")
	}
	return groups, nil
}

// EnsureBatchGroup opens the batch-wide group if missing and returns it.
func (s *ChatService) EnsureBatchGroup(ctx context.Context, batchID, name string) (*models.ChatGroup, error) {
	return s.ensureGroup(ctx, models.ChatGroupBatch, batchID, name)
}

// CreateGroupForCourse opens the course-scoped group if missing.
func (s *ChatService) CreateGroupForCourse(ctx context.Context, courseID, name string) error {
	_, err := s.ensureGroup(ctx, models.ChatGroupCourse, courseID, name)
	return err
}

func (s *ChatService) ensureGroup(ctx context.Context, groupType models.ChatGroupType, subjectID, name string) (*models.ChatGroup, error) {
	group, err := s.repo.FindGroupBySubject(ctx, groupType, subjectID)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat group")
	}
	group = &models.ChatGroup{Type: groupType, SubjectID: subjectID, Name: name}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chat group")
	}
	return group, nil
}

// Messages pages a group's history, newest first.
func (s *ChatService) Messages(ctx context.Context, groupID string, before time.Time) ([]models.Message, error) {
	if _, err := s.repo.FindGroup(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chat group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat group")
	}
	messages, err := s.repo.ListMessages(ctx, groupID, before, s.config.PageSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// Post appends a message from the authenticated sender.
func (s *ChatService) Post(ctx context.Context, groupID string, sender models.UserInfo, req PostMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if len(req.Body) > s.config.MaxBodySize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message body too long")
	}
	if _, err := s.repo.FindGroup(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chat group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat group")
	}

	message := &models.Message{
		GroupID:    groupID,
		SenderID:   sender.ID,
		SenderName: sender.FullName,
		Body:       req.Body,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post message")
	}
	return message, nil
}
