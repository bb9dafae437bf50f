package service

import (
	"context"

	"tribunal/internal/models"
	"tribunal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogService manages the append-only moderation log attached to actions.
type LogService struct {
	db         *gorm.DB
	logRepo    repository.LogRepository
	actionRepo repository.ActionRepository
	roleRepo   repository.RoleRepository
	isAdmin    func(ctx context.Context, memberID uint) (bool, error)
}

type AppendLogInput struct {
	ActorMemberID uint
	ActionID      uint
	EventType     string
	EventDetails  string
}

type CorrectLogDetailsInput struct {
	ActorMemberID uint
	ActionID      uint
	LogID         uint
	NewDetails    string
	Reason        string
}

func NewLogService(
	db *gorm.DB,
	logRepo repository.LogRepository,
	actionRepo repository.ActionRepository,
	roleRepo repository.RoleRepository,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
) *LogService {
	return &LogService{
		db:         db,
		logRepo:    logRepo,
		actionRepo: actionRepo,
		roleRepo:   roleRepo,
		isAdmin:    isAdmin,
	}
}

// AppendEntry records a log event against an existing action. Event types
// are descriptive, so unknown non-empty values pass through unchanged.
func (s *LogService) AppendEntry(ctx context.Context, in AppendLogInput) (*models.ModerationLog, error) {
	if in.EventType == "" {
		return nil, models.NewValidationError("event_type is required")
	}
	if _, err := s.actionRepo.GetByID(ctx, in.ActionID); err != nil {
		return nil, err
	}

	entry := &models.ModerationLog{
		EventID:       uuid.NewString(),
		ActionID:      in.ActionID,
		ActorMemberID: &in.ActorMemberID,
		EventType:     in.EventType,
		EventDetails:  in.EventDetails,
	}
	if err := s.logRepo.Append(ctx, nil, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns the action's log as a timeline, oldest first.
// actorMemberID 0 lists all actors.
func (s *LogService) ListEntries(ctx context.Context, actionID, actorMemberID uint, limit, offset int) ([]models.ModerationLog, int64, error) {
	if _, err := s.actionRepo.GetByID(ctx, actionID); err != nil {
		return nil, 0, err
	}
	return s.logRepo.ListByAction(ctx, actionID, actorMemberID, limit, offset)
}

func (s *LogService) GetEntry(ctx context.Context, id uint) (*models.ModerationLog, error) {
	return s.logRepo.GetByID(ctx, id)
}

func (s *LogService) GetEntryByEventID(ctx context.Context, eventID string) (*models.ModerationLog, error) {
	return s.logRepo.GetByEventID(ctx, eventID)
}

// CorrectDetails rewrites event_details on an existing entry and appends a
// details_correction entry in the same transaction, so the mutation itself
// stays on the record. Allowed for the moderator who recorded the parent
// action and for any administrator.
func (s *LogService) CorrectDetails(ctx context.Context, in CorrectLogDetailsInput) (*models.ModerationLog, error) {
	if in.NewDetails == "" {
		return nil, models.NewValidationError("new details are required")
	}

	entry, err := s.logRepo.GetByID(ctx, in.LogID)
	if err != nil {
		return nil, err
	}
	// An entry reached through the wrong action id does not exist.
	if in.ActionID != 0 && entry.ActionID != in.ActionID {
		return nil, models.NewNotFoundError("ModerationLog", in.LogID)
	}

	admin, err := s.isAdmin(ctx, in.ActorMemberID)
	if err != nil {
		return nil, err
	}
	if !admin {
		action, err := s.actionRepo.GetByID(ctx, entry.ActionID)
		if err != nil {
			return nil, err
		}
		grant, err := s.roleRepo.GetGrant(ctx, action.ModeratorID)
		if err != nil {
			return nil, err
		}
		if grant.MemberID != in.ActorMemberID {
			return nil, models.NewForbiddenError("only the recording moderator or an administrator may correct log details")
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.logRepo.UpdateDetails(ctx, tx, in.LogID, in.NewDetails); err != nil {
			return err
		}
		details := "corrected details of event " + entry.EventID
		if in.Reason != "" {
			details += ": " + in.Reason
		}
		correction := &models.ModerationLog{
			EventID:       uuid.NewString(),
			ActionID:      entry.ActionID,
			ActorMemberID: &in.ActorMemberID,
			EventType:     models.LogEventDetailsCorrection,
			EventDetails:  details,
		}
		return s.logRepo.Append(ctx, tx, correction)
	})
	if err != nil {
		return nil, err
	}

	entry.EventDetails = in.NewDetails
	return entry, nil
}
