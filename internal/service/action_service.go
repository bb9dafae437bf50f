package service

import (
	"context"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/observability"
	"tribunal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionService orchestrates the moderation action lifecycle: creation with
// the opening log entry, status transitions, detail edits, and hard delete.
type ActionService struct {
	db            *gorm.DB
	actionRepo    repository.ActionRepository
	logRepo       repository.LogRepository
	roleRepo      repository.RoleRepository
	directoryRepo repository.DirectoryRepository
	isAdmin       func(ctx context.Context, memberID uint) (bool, error)
	audit         *observability.AuditLogger
}

type CreateActionInput struct {
	ActorMemberID   uint
	TargetMemberID  *uint
	TargetPostID    *uint
	TargetCommentID *uint
	ActionType      models.ModerationActionType
	ActionReason    string
	Narrative       string
	Details         string
	EffectiveFrom   *time.Time
	EffectiveUntil  *time.Time
}

type TransitionActionInput struct {
	ActorMemberID uint
	ActionID      uint
	NextStatus    models.ModerationActionStatus
	Note          string
}

type UpdateActionInput struct {
	ActorMemberID  uint
	ActionID       uint
	ActionReason   string
	Narrative      string
	Details        string
	EffectiveUntil *time.Time
}

type ListActionsInput struct {
	Filter repository.ActionFilter
	Limit  int
	Offset int
}

func NewActionService(
	db *gorm.DB,
	actionRepo repository.ActionRepository,
	logRepo repository.LogRepository,
	roleRepo repository.RoleRepository,
	directoryRepo repository.DirectoryRepository,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
) *ActionService {
	return &ActionService{
		db:            db,
		actionRepo:    actionRepo,
		logRepo:       logRepo,
		roleRepo:      roleRepo,
		directoryRepo: directoryRepo,
		isAdmin:       isAdmin,
		audit:         observability.NewAuditLogger(),
	}
}

// CreateAction records an enforcement decision. The action and its opening
// action_taken log entry commit together so no action exists without a
// trail.
func (s *ActionService) CreateAction(ctx context.Context, in CreateActionInput) (*models.ModerationAction, error) {
	if !models.ValidActionType(in.ActionType) {
		return nil, models.NewValidationError("Invalid action_type")
	}
	if in.ActionReason == "" {
		return nil, models.NewValidationError("action_reason is required")
	}

	grant, err := s.roleRepo.GetActiveGrantByMember(ctx, in.ActorMemberID)
	if err != nil {
		return nil, models.NewForbiddenError("an active moderator grant is required to record actions")
	}

	if err := s.validateTarget(ctx, in); err != nil {
		return nil, err
	}

	effectiveFrom := time.Now().UTC()
	if in.EffectiveFrom != nil {
		effectiveFrom = in.EffectiveFrom.UTC()
	}
	if in.EffectiveUntil != nil && in.EffectiveUntil.Before(effectiveFrom) {
		return nil, models.NewValidationError("effective_until must not be before effective_from")
	}

	action := &models.ModerationAction{
		ModeratorID:       grant.ID,
		TargetMemberID:    in.TargetMemberID,
		TargetPostID:      in.TargetPostID,
		TargetCommentID:   in.TargetCommentID,
		ActionType:        in.ActionType,
		ActionReason:      in.ActionReason,
		DecisionNarrative: in.Narrative,
		Details:           in.Details,
		Status:            models.ActionStatusActive,
		EffectiveFrom:     effectiveFrom,
		EffectiveUntil:    in.EffectiveUntil,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.actionRepo.Create(ctx, tx, action); err != nil {
			return err
		}
		entry := &models.ModerationLog{
			EventID:       uuid.NewString(),
			ActionID:      action.ID,
			ActorMemberID: &in.ActorMemberID,
			EventType:     models.LogEventActionTaken,
			EventDetails:  in.ActionReason,
		}
		return s.logRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	observability.RecordActionCreated(string(in.ActionType))
	s.audit.LogEvent(ctx, models.LogEventActionTaken, action.ID, map[string]interface{}{
		"action_type": in.ActionType,
		"moderator":   in.ActorMemberID,
	})
	return action, nil
}

// validateTarget requires at least one populated target reference and
// verifies every referenced record exists. A single action may name a
// member together with the offending post or comment.
func (s *ActionService) validateTarget(ctx context.Context, in CreateActionInput) error {
	if in.TargetMemberID == nil && in.TargetPostID == nil && in.TargetCommentID == nil {
		return models.NewValidationError("a target member, post, or comment is required")
	}
	if in.TargetMemberID != nil {
		if _, err := s.directoryRepo.GetMember(ctx, *in.TargetMemberID); err != nil {
			return err
		}
	}
	if in.TargetPostID != nil {
		if _, err := s.directoryRepo.GetPost(ctx, *in.TargetPostID); err != nil {
			return err
		}
	}
	if in.TargetCommentID != nil {
		if _, err := s.directoryRepo.GetComment(ctx, *in.TargetCommentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ActionService) GetAction(ctx context.Context, id uint) (*models.ModerationAction, error) {
	return s.actionRepo.GetByID(ctx, id)
}

func (s *ActionService) ListActions(ctx context.Context, in ListActionsInput) ([]models.ModerationActionSummary, int64, error) {
	if in.Filter.ActionType != "" && !models.ValidActionType(in.Filter.ActionType) {
		return nil, 0, models.NewValidationError("Invalid action_type filter")
	}
	if in.Filter.Status != "" && !models.ValidActionStatus(in.Filter.Status) {
		return nil, 0, models.NewValidationError("Invalid status filter")
	}
	return s.actionRepo.List(ctx, in.Filter, in.Limit, in.Offset)
}

// TransitionStatus moves an action through its lifecycle. The row is locked
// for the duration of the transition so a concurrent move sees the updated
// status and fails the transition check.
func (s *ActionService) TransitionStatus(ctx context.Context, in TransitionActionInput) (*models.ModerationAction, error) {
	if !models.ValidActionStatus(in.NextStatus) {
		return nil, models.NewValidationError("Invalid status")
	}

	var result *models.ModerationAction
	var from models.ModerationActionStatus

	err := s.db.Transaction(func(tx *gorm.DB) error {
		action, err := s.actionRepo.GetByIDForUpdate(ctx, tx, in.ActionID)
		if err != nil {
			return err
		}
		if err := s.requireOwnerOrAdmin(ctx, action, in.ActorMemberID); err != nil {
			return err
		}
		from = action.Status
		if !action.Status.CanTransition(in.NextStatus) {
			return models.NewConflictError("cannot transition action from " + string(action.Status) + " to " + string(in.NextStatus))
		}

		action.Status = in.NextStatus
		if action.EffectiveUntil == nil && in.NextStatus != models.ActionStatusActive {
			now := time.Now().UTC()
			action.EffectiveUntil = &now
		}
		if err := s.actionRepo.UpdateStatus(ctx, tx, action); err != nil {
			return err
		}

		details := "status changed from " + string(from) + " to " + string(in.NextStatus)
		if in.Note != "" {
			details += ": " + in.Note
		}
		entry := &models.ModerationLog{
			EventID:       uuid.NewString(),
			ActionID:      action.ID,
			ActorMemberID: &in.ActorMemberID,
			EventType:     models.LogEventStatusUpdate,
			EventDetails:  details,
		}
		if err := s.logRepo.Append(ctx, tx, entry); err != nil {
			return err
		}
		result = action
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordActionTransition(string(from), string(in.NextStatus))
	return result, nil
}

// UpdateAction edits the mutable columns. Moderator, type, target, and
// effective_from never change after creation. The row stays locked for the
// duration so an edit racing a hard delete loses with NotFound instead of
// reporting a write that never landed.
func (s *ActionService) UpdateAction(ctx context.Context, in UpdateActionInput) (*models.ModerationAction, error) {
	var result *models.ModerationAction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		action, err := s.actionRepo.GetByIDForUpdate(ctx, tx, in.ActionID)
		if err != nil {
			return err
		}
		if err := s.requireOwnerOrAdmin(ctx, action, in.ActorMemberID); err != nil {
			return err
		}

		if in.ActionReason != "" {
			action.ActionReason = in.ActionReason
		}
		if in.Narrative != "" {
			action.DecisionNarrative = in.Narrative
		}
		if in.Details != "" {
			action.Details = in.Details
		}
		if in.EffectiveUntil != nil {
			if in.EffectiveUntil.Before(action.EffectiveFrom) {
				return models.NewValidationError("effective_until must not be before effective_from")
			}
			action.EffectiveUntil = in.EffectiveUntil
		}

		if err := s.actionRepo.UpdateMutable(ctx, tx, action); err != nil {
			return err
		}
		result = action
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// requireOwnerOrAdmin admits the moderator who recorded the action or any
// administrator.
func (s *ActionService) requireOwnerOrAdmin(ctx context.Context, action *models.ModerationAction, memberID uint) error {
	admin, err := s.isAdmin(ctx, memberID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}
	grant, err := s.roleRepo.GetGrant(ctx, action.ModeratorID)
	if err != nil {
		return err
	}
	if grant.MemberID != memberID {
		return models.NewForbiddenError("only the recording moderator or an administrator may edit this action")
	}
	return nil
}

// DeleteAction hard-deletes an action and its logs. Administrator only;
// routine cleanup goes through reversal instead.
func (s *ActionService) DeleteAction(ctx context.Context, actorMemberID, actionID uint) error {
	admin, err := s.isAdmin(ctx, actorMemberID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("only administrators may delete moderation actions")
	}
	if err := s.actionRepo.Delete(ctx, actionID); err != nil {
		return err
	}
	observability.AuditLog(ctx, "action_deleted", "action_id", actionID, "deleted_by", actorMemberID)
	return nil
}

// reverseForAppeal flips the action to reversed inside the caller's
// transaction. An already reversed action is left alone so accepting an
// appeal stays idempotent on the action side.
func (s *ActionService) reverseForAppeal(ctx context.Context, tx *gorm.DB, actionID, adminMemberID uint) error {
	action, err := s.actionRepo.GetByIDForUpdate(ctx, tx, actionID)
	if err != nil {
		return err
	}
	if action.Status == models.ActionStatusReversed {
		return nil
	}
	if !action.Status.CanTransition(models.ActionStatusReversed) {
		return models.NewConflictError("action cannot be reversed from status " + string(action.Status))
	}

	from := action.Status
	action.Status = models.ActionStatusReversed
	if action.EffectiveUntil == nil {
		now := time.Now().UTC()
		action.EffectiveUntil = &now
	}
	if err := s.actionRepo.UpdateStatus(ctx, tx, action); err != nil {
		return err
	}

	entry := &models.ModerationLog{
		EventID:       uuid.NewString(),
		ActionID:      action.ID,
		ActorMemberID: &adminMemberID,
		EventType:     models.LogEventStatusUpdate,
		EventDetails:  "status changed from " + string(from) + " to reversed: appeal accepted",
	}
	if err := s.logRepo.Append(ctx, tx, entry); err != nil {
		return err
	}
	observability.RecordActionTransition(string(from), string(models.ActionStatusReversed))
	return nil
}
