// Package service contains the business logic for the moderation engine.
package service

import (
	"context"
	"time"

	"tribunal/internal/cache"
	"tribunal/internal/models"
	"tribunal/internal/observability"
	"tribunal/internal/repository"

	"gorm.io/gorm"
)

// MemberRoles is the evaluated role pair for a member. Staff means either
// flag is set.
type MemberRoles struct {
	IsAdministrator bool `json:"is_administrator"`
	IsModerator     bool `json:"is_moderator"`
}

// Staff reports whether the member holds any staff role.
func (r MemberRoles) Staff() bool {
	return r.IsAdministrator || r.IsModerator
}

// RoleService manages administrator records and moderator grants.
type RoleService struct {
	db            *gorm.DB
	roleRepo      repository.RoleRepository
	directoryRepo repository.DirectoryRepository
}

type GrantModeratorInput struct {
	AdminMemberID  uint
	TargetMemberID uint
}

type RevokeModeratorInput struct {
	AdminMemberID  uint
	TargetMemberID uint
}

func NewRoleService(
	db *gorm.DB,
	roleRepo repository.RoleRepository,
	directoryRepo repository.DirectoryRepository,
) *RoleService {
	return &RoleService{
		db:            db,
		roleRepo:      roleRepo,
		directoryRepo: directoryRepo,
	}
}

// RolesFor evaluates the member's roles, cache-aside on the roles key so
// the auth gates stay cheap.
func (s *RoleService) RolesFor(ctx context.Context, memberID uint) (MemberRoles, error) {
	var roles MemberRoles
	err := cache.Aside(ctx, cache.MemberRolesKey(memberID), &roles, cache.RolesTTL, func() error {
		isAdmin, err := s.roleRepo.IsAdministrator(ctx, memberID)
		if err != nil {
			return err
		}
		isMod, err := s.roleRepo.HasActiveGrant(ctx, memberID)
		if err != nil {
			return err
		}
		roles = MemberRoles{IsAdministrator: isAdmin, IsModerator: isMod}
		return nil
	})
	return roles, err
}

// IsAdministrator is the narrow check used by admin-only gates and services.
func (s *RoleService) IsAdministrator(ctx context.Context, memberID uint) (bool, error) {
	roles, err := s.RolesFor(ctx, memberID)
	if err != nil {
		return false, err
	}
	return roles.IsAdministrator, nil
}

// GrantModerator assigns an active moderator grant to the target member.
// The partial unique index makes a concurrent double-grant lose with a
// conflict instead of a second active row.
func (s *RoleService) GrantModerator(ctx context.Context, in GrantModeratorInput) (*models.ModeratorGrant, error) {
	admin, err := s.roleRepo.GetAdministratorByMember(ctx, in.AdminMemberID)
	if err != nil {
		return nil, models.NewForbiddenError("only administrators may grant moderator roles")
	}

	member, err := s.directoryRepo.GetMember(ctx, in.TargetMemberID)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, models.NewValidationError("moderator grants require an active member")
	}

	grant := &models.ModeratorGrant{
		MemberID:                  in.TargetMemberID,
		AssignedByAdministratorID: admin.ID,
		AssignedAt:                time.Now().UTC(),
	}
	if err := s.roleRepo.CreateGrant(ctx, grant); err != nil {
		return nil, err
	}

	observability.AuditLog(ctx, "moderator_granted",
		"member_id", in.TargetMemberID,
		"granted_by", in.AdminMemberID,
	)
	return grant, nil
}

// RevokeModerator stamps revoked_at on the target's active grant. The grant
// row survives so the assignment history stays auditable.
func (s *RoleService) RevokeModerator(ctx context.Context, in RevokeModeratorInput) (*models.ModeratorGrant, error) {
	if _, err := s.roleRepo.GetAdministratorByMember(ctx, in.AdminMemberID); err != nil {
		return nil, models.NewForbiddenError("only administrators may revoke moderator roles")
	}

	var revoked *models.ModeratorGrant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		grant, err := s.roleRepo.GetActiveGrantByMemberForUpdate(ctx, tx, in.TargetMemberID)
		if err != nil {
			if appErr, ok := err.(*models.AppError); ok && appErr.Code == models.CodeNotFound {
				return models.NewConflictError("member has no active moderator grant")
			}
			return err
		}
		now := time.Now().UTC()
		grant.RevokedAt = &now
		if err := s.roleRepo.RevokeGrant(ctx, tx, grant); err != nil {
			return err
		}
		revoked = grant
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AuditLog(ctx, "moderator_revoked",
		"member_id", in.TargetMemberID,
		"revoked_by", in.AdminMemberID,
	)
	return revoked, nil
}

// GrantAdministrator records a member as administrator. Reached from
// operator tooling and from existing administrators.
func (s *RoleService) GrantAdministrator(ctx context.Context, memberID uint) (*models.Administrator, error) {
	if _, err := s.directoryRepo.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	admin := &models.Administrator{
		MemberID:  memberID,
		GrantedAt: time.Now().UTC(),
	}
	if err := s.roleRepo.CreateAdministrator(ctx, admin); err != nil {
		return nil, err
	}
	observability.AuditLog(ctx, "administrator_granted", "member_id", memberID)
	return admin, nil
}

// RevokeAdministrator removes the administrator record for a member.
func (s *RoleService) RevokeAdministrator(ctx context.Context, memberID uint) error {
	if err := s.roleRepo.DeleteAdministrator(ctx, memberID); err != nil {
		return err
	}
	observability.AuditLog(ctx, "administrator_revoked", "member_id", memberID)
	return nil
}

// ListAdministrators returns all administrator records with their members.
func (s *RoleService) ListAdministrators(ctx context.Context) ([]models.Administrator, error) {
	return s.roleRepo.ListAdministrators(ctx)
}

// ListModerators returns currently active grants.
func (s *RoleService) ListModerators(ctx context.Context, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	return s.roleRepo.ListActiveGrants(ctx, limit, offset)
}

// GrantHistory returns all grants for a member, revoked included, newest
// first.
func (s *RoleService) GrantHistory(ctx context.Context, memberID uint, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	if _, err := s.directoryRepo.GetMember(ctx, memberID); err != nil {
		return nil, 0, err
	}
	return s.roleRepo.ListGrantsByMember(ctx, memberID, limit, offset)
}
