package server

import (
	"tribunal/internal/models"
	"tribunal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyRoles handles GET /api/members/me/roles.
func (s *Server) GetMyRoles(c *fiber.Ctx) error {
	ctx := c.UserContext()

	roles, err := s.roleService.RolesFor(ctx, memberID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(roles)
}

// GetMemberRoles handles GET /api/admin/members/:id/roles.
func (s *Server) GetMemberRoles(c *fiber.Ctx) error {
	ctx := c.UserContext()
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.directoryRepo.GetMember(ctx, targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	roles, err := s.roleService.RolesFor(ctx, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(roles)
}

// PromoteModerator handles POST /api/admin/members/:id/promote-moderator.
// @Summary Grant a moderator role
// @Description Assign an active moderator grant to the member. A member holds at most one active grant.
// @Tags roles
// @Produce json
// @Param id path int true "Member ID"
// @Success 201 {object} models.ModeratorGrant
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/promote-moderator [post]
func (s *Server) PromoteModerator(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID := memberID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	grant, err := s.roleService.GrantModerator(ctx, service.GrantModeratorInput{
		AdminMemberID:  adminID,
		TargetMemberID: targetID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishMemberEvent(targetID, EventModeratorGranted, map[string]interface{}{
		"grant_id": grant.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(grant)
}

// DemoteModerator handles POST /api/admin/members/:id/demote-moderator.
// @Summary Revoke a moderator role
// @Description Stamp revoked_at on the member's active grant. The grant row survives for audit.
// @Tags roles
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.ModeratorGrant
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/demote-moderator [post]
func (s *Server) DemoteModerator(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID := memberID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	grant, err := s.roleService.RevokeModerator(ctx, service.RevokeModeratorInput{
		AdminMemberID:  adminID,
		TargetMemberID: targetID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishMemberEvent(targetID, EventModeratorRevoked, map[string]interface{}{
		"grant_id": grant.ID,
	})

	return c.JSON(grant)
}

// PromoteAdministrator handles POST /api/admin/members/:id/promote-admin.
func (s *Server) PromoteAdministrator(c *fiber.Ctx) error {
	ctx := c.UserContext()
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, err := s.roleService.GrantAdministrator(ctx, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(admin)
}

// DemoteAdministrator handles POST /api/admin/members/:id/demote-admin.
func (s *Server) DemoteAdministrator(c *fiber.Ctx) error {
	ctx := c.UserContext()
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.roleService.RevokeAdministrator(ctx, targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Administrator role revoked"})
}

// GetModerators handles GET /api/admin/moderators. Active grants only.
func (s *Server) GetModerators(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	grants, total, err := s.roleService.ListModerators(ctx, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, grants, total, page)
}

// GetAdministrators handles GET /api/admin/administrators.
func (s *Server) GetAdministrators(c *fiber.Ctx) error {
	ctx := c.UserContext()

	admins, err := s.roleService.ListAdministrators(ctx)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(admins)
}

// GetMemberGrantHistory handles GET /api/admin/members/:id/grants. Revoked
// grants are included, newest first.
// @Summary List a member's grant history
// @Description Return every moderator grant recorded for the member, revoked grants included.
// @Tags roles
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} object{data=[]models.ModeratorGrant,total=int}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id}/grants [get]
func (s *Server) GetMemberGrantHistory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	grants, total, err := s.roleService.GrantHistory(ctx, targetID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, grants, total, page)
}
