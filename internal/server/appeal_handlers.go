package server

import (
	"tribunal/internal/models"
	"tribunal/internal/repository"
	"tribunal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitAppeal handles POST /api/appeals.
// @Summary Submit an appeal
// @Description Contest a moderation action or a flag-report outcome. Exactly one parent reference is accepted.
// @Tags appeals
// @Accept json
// @Produce json
// @Param request body object{moderation_action_id=int,flag_report_id=int,appeal_rationale=string} true "Appeal details"
// @Success 201 {object} models.Appeal
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /appeals [post]
func (s *Server) SubmitAppeal(c *fiber.Ctx) error {
	ctx := c.UserContext()
	appellantID := memberID(c)

	var req struct {
		ModerationActionID *uint  `json:"moderation_action_id"`
		FlagReportID       *uint  `json:"flag_report_id"`
		AppealRationale    string `json:"appeal_rationale"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appeal, err := s.appealService.SubmitAppeal(ctx, service.SubmitAppealInput{
		AppellantMemberID:  appellantID,
		ModerationActionID: req.ModerationActionID,
		FlagReportID:       req.FlagReportID,
		Rationale:          req.AppealRationale,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishModerationEvent(EventAppealSubmitted, map[string]interface{}{
		"id":     appeal.ID,
		"status": appeal.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(appeal)
}

// GetMyAppeals handles GET /api/appeals/me.
func (s *Server) GetMyAppeals(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	appeals, total, err := s.appealService.ListMyAppeals(ctx, memberID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, appeals, total, page)
}

// GetAppeals handles GET /api/appeals.
// @Summary List appeals
// @Description List appeals with optional filters. Staff only.
// @Tags appeals
// @Produce json
// @Param appellant_member_id query int false "Filter by appellant"
// @Param status query string false "Filter by status"
// @Success 200 {object} object{data=[]models.Appeal,total=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /appeals [get]
func (s *Server) GetAppeals(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	filter := repository.AppealFilter{
		Status: models.AppealStatus(c.Query("status")),
	}
	if id := optionalUintQuery(c, "appellant_member_id"); id != nil {
		filter.AppellantMemberID = *id
	}

	appeals, total, err := s.appealService.ListAppeals(ctx, service.ListAppealsInput{
		Filter: filter,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, appeals, total, page)
}

// GetAppeal handles GET /api/appeals/:id. Visible to the appellant and staff.
func (s *Server) GetAppeal(c *fiber.Ctx) error {
	ctx := c.UserContext()
	appealID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	appeal, err := s.appealService.GetAppeal(ctx, memberID(c), appealID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(appeal)
}

// ResolveAppeal handles POST /api/admin/appeals/:id/status.
// @Summary Resolve an appeal
// @Description Move an appeal through its lifecycle. Accepting an appeal against an action reverses the action.
// @Tags moderation-admin
// @Accept json
// @Produce json
// @Param id path int true "Appeal ID"
// @Param request body object{status=string,resolution_notes=string} true "Resolution details"
// @Success 200 {object} models.Appeal
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/appeals/{id}/status [post]
func (s *Server) ResolveAppeal(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID := memberID(c)
	appealID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status          string `json:"status"`
		ResolutionNotes string `json:"resolution_notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appeal, err := s.appealService.ResolveAppeal(ctx, service.ResolveAppealInput{
		AdminMemberID:   adminID,
		AppealID:        appealID,
		NextStatus:      models.AppealStatus(req.Status),
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if appeal.Status.Terminal() {
		s.publishMemberEvent(appeal.AppellantMemberID, EventAppealResolved, map[string]interface{}{
			"id":     appeal.ID,
			"status": appeal.Status,
		})
	}
	s.publishModerationEvent(EventAppealResolved, map[string]interface{}{
		"id":     appeal.ID,
		"status": appeal.Status,
	})

	return c.JSON(appeal)
}
