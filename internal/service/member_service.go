package service

import (
	"context"
	"errors"
	"log/slog"

	"tribunal/internal/models"

	"gorm.io/gorm"
)

// AdminMemberDetail aggregates a member's moderation footprint for admin
// views: actions taken against them, appeals they filed, and flag reports
// they submitted.
type AdminMemberDetail struct {
	Member      models.Member                    `json:"member"`
	Roles       MemberRoles                      `json:"roles"`
	Actions     []models.ModerationActionSummary `json:"actions"`
	Appeals     []models.Appeal                  `json:"appeals"`
	FlagReports []models.FlagReport              `json:"flag_reports"`
	Warnings    []string                         `json:"warnings,omitempty"`
}

// MemberService provides admin-facing aggregation over the member reference
// table.
type MemberService struct {
	db    *gorm.DB
	roles *RoleService
}

// NewMemberService returns a new MemberService.
func NewMemberService(db *gorm.DB, roles *RoleService) *MemberService {
	return &MemberService{db: db, roles: roles}
}

// AdminDetail returns the member with their moderation history. A section
// that fails to load degrades to a warning so the rest of the view survives.
func (s *MemberService) AdminDetail(ctx context.Context, memberID uint) (*AdminMemberDetail, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("member", memberID)
		}
		return nil, models.NewInternalError(err)
	}

	detail := &AdminMemberDetail{Member: member}

	roles, err := s.roles.RolesFor(ctx, memberID)
	if err != nil {
		slog.WarnContext(ctx, "failed to evaluate roles for member detail", "member_id", memberID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: roles could not be evaluated.")
	} else {
		detail.Roles = roles
	}

	if err := s.db.WithContext(ctx).
		Model(&models.ModerationAction{}).
		Where("target_member_id = ?", memberID).
		Order("created_at DESC").
		Limit(200).
		Find(&detail.Actions).Error; err != nil {
		slog.WarnContext(ctx, "failed to load actions for member detail", "member_id", memberID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: moderation actions could not be loaded.")
	}

	if err := s.db.WithContext(ctx).
		Where("appellant_member_id = ?", memberID).
		Order("created_at DESC").
		Limit(200).
		Find(&detail.Appeals).Error; err != nil {
		slog.WarnContext(ctx, "failed to load appeals for member detail", "member_id", memberID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: appeals could not be loaded.")
	}

	if err := s.db.WithContext(ctx).
		Where("reporter_id = ?", memberID).
		Order("created_at DESC").
		Limit(200).
		Find(&detail.FlagReports).Error; err != nil {
		slog.WarnContext(ctx, "failed to load flag reports for member detail", "member_id", memberID, "err", err)
		detail.Warnings = append(detail.Warnings, "Partial data: flag reports could not be loaded.")
	}

	return detail, nil
}
