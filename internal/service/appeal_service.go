package service

import (
	"context"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/observability"
	"tribunal/internal/repository"

	"gorm.io/gorm"
)

// AppealService handles member appeals against moderation actions and
// flag-report outcomes. Administrators alone move appeal status.
type AppealService struct {
	db            *gorm.DB
	appealRepo    repository.AppealRepository
	actionRepo    repository.ActionRepository
	flagRepo      repository.FlagRepository
	directoryRepo repository.DirectoryRepository
	actionService *ActionService
	isAdmin       func(ctx context.Context, memberID uint) (bool, error)
	isStaff       func(ctx context.Context, memberID uint) (bool, error)
}

type SubmitAppealInput struct {
	AppellantMemberID  uint
	ModerationActionID *uint
	FlagReportID       *uint
	Rationale          string
}

type ResolveAppealInput struct {
	AdminMemberID   uint
	AppealID        uint
	NextStatus      models.AppealStatus
	ResolutionNotes string
}

type ListAppealsInput struct {
	Filter repository.AppealFilter
	Limit  int
	Offset int
}

func NewAppealService(
	db *gorm.DB,
	appealRepo repository.AppealRepository,
	actionRepo repository.ActionRepository,
	flagRepo repository.FlagRepository,
	directoryRepo repository.DirectoryRepository,
	actionService *ActionService,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
	isStaff func(ctx context.Context, memberID uint) (bool, error),
) *AppealService {
	return &AppealService{
		db:            db,
		appealRepo:    appealRepo,
		actionRepo:    actionRepo,
		flagRepo:      flagRepo,
		directoryRepo: directoryRepo,
		actionService: actionService,
		isAdmin:       isAdmin,
		isStaff:       isStaff,
	}
}

// SubmitAppeal opens a pending appeal against exactly one parent record.
// The duplicate check and the insert run in one transaction so two
// simultaneous submissions cannot both land.
func (s *AppealService) SubmitAppeal(ctx context.Context, in SubmitAppealInput) (*models.Appeal, error) {
	if in.Rationale == "" {
		return nil, models.NewValidationError("appeal_rationale is required")
	}
	if (in.ModerationActionID != nil) == (in.FlagReportID != nil) {
		return nil, models.NewValidationError("an appeal references exactly one moderation action or flag report")
	}

	if _, err := s.directoryRepo.GetMember(ctx, in.AppellantMemberID); err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, in); err != nil {
		return nil, err
	}

	appeal := &models.Appeal{
		AppellantMemberID:  in.AppellantMemberID,
		ModerationActionID: in.ModerationActionID,
		FlagReportID:       in.FlagReportID,
		AppealRationale:    in.Rationale,
		Status:             models.AppealStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		var err error
		if in.ModerationActionID != nil {
			open, err = s.appealRepo.CountOpenForAction(ctx, tx, in.AppellantMemberID, *in.ModerationActionID)
		} else {
			open, err = s.appealRepo.CountOpenForFlagReport(ctx, tx, in.AppellantMemberID, *in.FlagReportID)
		}
		if err != nil {
			return err
		}
		if open > 0 {
			return models.NewConflictError("an open appeal for this record already exists")
		}
		return s.appealRepo.Create(ctx, tx, appeal)
	})
	if err != nil {
		return nil, err
	}

	observability.AppealsSubmittedTotal.Inc()
	observability.AuditLog(ctx, "appeal_submitted",
		"appeal_id", appeal.ID,
		"appellant", in.AppellantMemberID,
	)
	return appeal, nil
}

// checkEligibility verifies the parent exists and the appellant is the
// party the record bears on: the action's target member, or the reporter of
// a resolved flag.
func (s *AppealService) checkEligibility(ctx context.Context, in SubmitAppealInput) error {
	if in.ModerationActionID != nil {
		action, err := s.actionRepo.GetByID(ctx, *in.ModerationActionID)
		if err != nil {
			return err
		}
		if action.TargetMemberID == nil || *action.TargetMemberID != in.AppellantMemberID {
			// Content actions are appealable by the content's author.
			authorID, err := s.contentAuthor(ctx, action)
			if err != nil {
				return err
			}
			if authorID != in.AppellantMemberID {
				return models.NewForbiddenError("only the member the action bears on may appeal it")
			}
		}
		return nil
	}

	report, err := s.flagRepo.GetByID(ctx, *in.FlagReportID)
	if err != nil {
		return err
	}
	if !report.Status.Terminal() {
		return models.NewValidationError("flag reports can be appealed only after a terminal triage decision")
	}
	if report.ReporterID != in.AppellantMemberID {
		return models.NewForbiddenError("only the reporter may appeal a flag-report outcome")
	}
	return nil
}

func (s *AppealService) contentAuthor(ctx context.Context, action *models.ModerationAction) (uint, error) {
	switch {
	case action.TargetPostID != nil:
		post, err := s.directoryRepo.GetPost(ctx, *action.TargetPostID)
		if err != nil {
			return 0, err
		}
		return post.AuthorMemberID, nil
	case action.TargetCommentID != nil:
		comment, err := s.directoryRepo.GetComment(ctx, *action.TargetCommentID)
		if err != nil {
			return 0, err
		}
		return comment.AuthorMemberID, nil
	default:
		return 0, nil
	}
}

// GetAppeal returns the appeal if the requester is the appellant or staff.
func (s *AppealService) GetAppeal(ctx context.Context, requesterMemberID, appealID uint) (*models.Appeal, error) {
	appeal, err := s.appealRepo.GetByID(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if appeal.AppellantMemberID != requesterMemberID {
		staff, err := s.isStaff(ctx, requesterMemberID)
		if err != nil {
			return nil, err
		}
		if !staff {
			return nil, models.NewForbiddenError("appeals are visible to the appellant and staff only")
		}
	}
	return appeal, nil
}

// ListAppeals is the staff-facing listing with filters.
func (s *AppealService) ListAppeals(ctx context.Context, in ListAppealsInput) ([]models.Appeal, int64, error) {
	if in.Filter.Status != "" && !models.ValidAppealStatus(in.Filter.Status) {
		return nil, 0, models.NewValidationError("Invalid status filter")
	}
	return s.appealRepo.List(ctx, in.Filter, in.Limit, in.Offset)
}

// ListMyAppeals returns the requester's own appeals.
func (s *AppealService) ListMyAppeals(ctx context.Context, memberID uint, limit, offset int) ([]models.Appeal, int64, error) {
	return s.appealRepo.List(ctx, repository.AppealFilter{AppellantMemberID: memberID}, limit, offset)
}

// ResolveAppeal moves an appeal through its lifecycle. Accepting an appeal
// against an action reverses the action in the same transaction, so the
// two records cannot disagree.
func (s *AppealService) ResolveAppeal(ctx context.Context, in ResolveAppealInput) (*models.Appeal, error) {
	if !models.ValidAppealStatus(in.NextStatus) {
		return nil, models.NewValidationError("Invalid status")
	}
	if in.NextStatus.Terminal() && in.ResolutionNotes == "" {
		return nil, models.NewValidationError("resolution_notes are required to accept or dismiss an appeal")
	}
	admin, err := s.isAdmin(ctx, in.AdminMemberID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError("only administrators may resolve appeals")
	}

	var result *models.Appeal
	err = s.db.Transaction(func(tx *gorm.DB) error {
		appeal, err := s.appealRepo.GetByIDForUpdate(ctx, tx, in.AppealID)
		if err != nil {
			return err
		}
		if !appeal.Status.CanTransition(in.NextStatus) {
			return models.NewConflictError("cannot transition appeal from " + string(appeal.Status) + " to " + string(in.NextStatus))
		}

		appeal.Status = in.NextStatus
		if in.ResolutionNotes != "" {
			appeal.ResolutionNotes = in.ResolutionNotes
		}
		if in.NextStatus.Terminal() {
			now := time.Now().UTC()
			appeal.ResolvedAt = &now
		}
		if err := s.appealRepo.UpdateResolution(ctx, tx, appeal); err != nil {
			return err
		}

		if in.NextStatus == models.AppealStatusAccepted && appeal.ModerationActionID != nil {
			if err := s.actionService.reverseForAppeal(ctx, tx, *appeal.ModerationActionID, in.AdminMemberID); err != nil {
				return err
			}
		}
		result = appeal
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status.Terminal() && result.ResolvedAt != nil {
		observability.RecordAppealResolved(string(result.Status), result.CreatedAt, *result.ResolvedAt)
	}
	observability.AuditLog(ctx, "appeal_resolved",
		"appeal_id", result.ID,
		"status", string(result.Status),
		"resolved_by", in.AdminMemberID,
	)
	return result, nil
}
