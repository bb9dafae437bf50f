package service

import (
	"context"
	"time"

	"tribunal/internal/models"
	"tribunal/internal/observability"
	"tribunal/internal/repository"

	"gorm.io/gorm"
)

// FlagService handles member-submitted flag reports and their staff triage.
type FlagService struct {
	db            *gorm.DB
	flagRepo      repository.FlagRepository
	directoryRepo repository.DirectoryRepository
	isAdmin       func(ctx context.Context, memberID uint) (bool, error)
	isStaff       func(ctx context.Context, memberID uint) (bool, error)
}

type SubmitFlagInput struct {
	ReporterID uint
	PostID     *uint
	CommentID  *uint
	Reason     models.FlagReason
	Details    string
}

type TriageFlagInput struct {
	ReviewerMemberID uint
	FlagID           uint
	NextStatus       models.FlagReportStatus
	Details          string
}

type ListFlagsInput struct {
	Filter repository.FlagFilter
	Limit  int
	Offset int
}

func NewFlagService(
	db *gorm.DB,
	flagRepo repository.FlagRepository,
	directoryRepo repository.DirectoryRepository,
	isAdmin func(ctx context.Context, memberID uint) (bool, error),
	isStaff func(ctx context.Context, memberID uint) (bool, error),
) *FlagService {
	return &FlagService{
		db:            db,
		flagRepo:      flagRepo,
		directoryRepo: directoryRepo,
		isAdmin:       isAdmin,
		isStaff:       isStaff,
	}
}

// SubmitFlag files a pending report against exactly one post or comment.
// Reporter, content reference, and reason freeze here; details may still be
// amended during triage.
func (s *FlagService) SubmitFlag(ctx context.Context, in SubmitFlagInput) (*models.FlagReport, error) {
	if !models.ValidFlagReason(in.Reason) {
		return nil, models.NewValidationError("Invalid reason")
	}
	if (in.PostID != nil) == (in.CommentID != nil) {
		return nil, models.NewValidationError("a flag references exactly one post or comment")
	}

	if _, err := s.directoryRepo.GetMember(ctx, in.ReporterID); err != nil {
		return nil, err
	}
	if in.PostID != nil {
		if _, err := s.directoryRepo.GetPost(ctx, *in.PostID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.directoryRepo.GetComment(ctx, *in.CommentID); err != nil {
			return nil, err
		}
	}

	report := &models.FlagReport{
		ReporterID: in.ReporterID,
		PostID:     in.PostID,
		CommentID:  in.CommentID,
		Reason:     in.Reason,
		Details:    in.Details,
		Status:     models.FlagStatusPending,
	}
	if err := s.flagRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	observability.FlagReportsTotal.WithLabelValues(string(in.Reason)).Inc()
	observability.AuditLog(ctx, "flag_submitted",
		"flag_id", report.ID,
		"reason", string(in.Reason),
	)
	return report, nil
}

// GetFlag returns the report if the requester is the reporter or staff.
func (s *FlagService) GetFlag(ctx context.Context, requesterMemberID, flagID uint) (*models.FlagReport, error) {
	report, err := s.flagRepo.GetByID(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != requesterMemberID {
		staff, err := s.isStaff(ctx, requesterMemberID)
		if err != nil {
			return nil, err
		}
		if !staff {
			return nil, models.NewForbiddenError("flag reports are visible to the reporter and staff only")
		}
	}
	return report, nil
}

// ListFlags is the staff-facing triage queue with filters.
func (s *FlagService) ListFlags(ctx context.Context, in ListFlagsInput) ([]models.FlagReport, int64, error) {
	if in.Filter.Reason != "" && !models.ValidFlagReason(in.Filter.Reason) {
		return nil, 0, models.NewValidationError("Invalid reason filter")
	}
	if in.Filter.Status != "" && !models.ValidFlagStatus(in.Filter.Status) {
		return nil, 0, models.NewValidationError("Invalid status filter")
	}
	return s.flagRepo.List(ctx, in.Filter, in.Limit, in.Offset)
}

// ListMyFlags returns the requester's own reports.
func (s *FlagService) ListMyFlags(ctx context.Context, memberID uint, limit, offset int) ([]models.FlagReport, int64, error) {
	return s.flagRepo.List(ctx, repository.FlagFilter{ReporterID: memberID}, limit, offset)
}

// TriageFlag moves a report through triage. The first move out of pending
// stamps the reviewer; decisions on escalated reports are reserved for
// administrators.
func (s *FlagService) TriageFlag(ctx context.Context, in TriageFlagInput) (*models.FlagReport, error) {
	if !models.ValidFlagStatus(in.NextStatus) {
		return nil, models.NewValidationError("Invalid status")
	}
	staff, err := s.isStaff(ctx, in.ReviewerMemberID)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, models.NewForbiddenError("only staff may triage flag reports")
	}

	var result *models.FlagReport
	err = s.db.Transaction(func(tx *gorm.DB) error {
		report, err := s.flagRepo.GetByIDForUpdate(ctx, tx, in.FlagID)
		if err != nil {
			return err
		}
		if !report.Status.CanTransition(in.NextStatus) {
			return models.NewConflictError("cannot transition flag report from " + string(report.Status) + " to " + string(in.NextStatus))
		}
		if report.Status == models.FlagStatusEscalated {
			admin, err := s.isAdmin(ctx, in.ReviewerMemberID)
			if err != nil {
				return err
			}
			if !admin {
				return models.NewForbiddenError("escalated reports are resolved by administrators")
			}
		}

		report.Status = in.NextStatus
		if in.Details != "" {
			report.Details = in.Details
		}
		if report.ReviewedAt == nil {
			now := time.Now().UTC()
			report.ReviewedAt = &now
			report.ReviewedByMemberID = &in.ReviewerMemberID
		}
		if err := s.flagRepo.UpdateTriage(ctx, tx, report); err != nil {
			return err
		}
		result = report
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FlagTriageTotal.WithLabelValues(string(result.Status)).Inc()
	observability.AuditLog(ctx, "flag_triaged",
		"flag_id", result.ID,
		"status", string(result.Status),
		"reviewed_by", in.ReviewerMemberID,
	)
	return result, nil
}
