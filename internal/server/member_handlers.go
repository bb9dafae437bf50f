package server

import (
	"strings"

	"tribunal/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxAdminMemberSearchLen = 64

// GetAdminMembers handles GET /api/admin/members.
// @Summary List members for admin
// @Description List members with search and pagination.
// @Tags moderation-admin
// @Produce json
// @Param q query string false "Search query (nickname or email)"
// @Success 200 {array} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members [get]
func (s *Server) GetAdminMembers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 100)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	q := strings.TrimSpace(c.Query("q"))

	if len(q) > maxAdminMemberSearchLen {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query too long (max 64 characters)"))
	}

	members, err := s.directoryRepo.SearchMembers(ctx, q, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(members)
}

// GetAdminMemberDetail handles GET /api/admin/members/:id.
// @Summary Member detail for admin
// @Description Member record with actions taken against them, their appeals, and their flag reports.
// @Tags moderation-admin
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} service.AdminMemberDetail
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/members/{id} [get]
func (s *Server) GetAdminMemberDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.memberService.AdminDetail(ctx, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(detail)
}
