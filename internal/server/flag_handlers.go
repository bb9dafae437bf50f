package server

import (
	"tribunal/internal/models"
	"tribunal/internal/repository"
	"tribunal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitFlag handles POST /api/flags.
// @Summary Flag content
// @Description File a flag report against exactly one post or comment.
// @Tags flags
// @Accept json
// @Produce json
// @Param request body object{post_id=int,comment_id=int,reason=string,details=string} true "Report details"
// @Success 201 {object} models.FlagReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /flags [post]
func (s *Server) SubmitFlag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reporterID := memberID(c)

	var req struct {
		PostID    *uint  `json:"post_id"`
		CommentID *uint  `json:"comment_id"`
		Reason    string `json:"reason"`
		Details   string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.flagService.SubmitFlag(ctx, service.SubmitFlagInput{
		ReporterID: reporterID,
		PostID:     req.PostID,
		CommentID:  req.CommentID,
		Reason:     models.FlagReason(req.Reason),
		Details:    req.Details,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishModerationEvent(EventFlagSubmitted, map[string]interface{}{
		"id":     report.ID,
		"reason": report.Reason,
	})

	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetMyFlags handles GET /api/flags/me.
func (s *Server) GetMyFlags(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	reports, total, err := s.flagService.ListMyFlags(ctx, memberID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, reports, total, page)
}

// GetFlags handles GET /api/flags. This is the staff triage queue.
// @Summary List flag reports
// @Description List flag reports with optional filters. Staff only.
// @Tags flags
// @Produce json
// @Param reporter_id query int false "Filter by reporter"
// @Param post_id query int false "Filter by post"
// @Param comment_id query int false "Filter by comment"
// @Param reason query string false "Filter by reason"
// @Param status query string false "Filter by status"
// @Success 200 {object} object{data=[]models.FlagReport,total=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /flags [get]
func (s *Server) GetFlags(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	filter := repository.FlagFilter{
		Reason: models.FlagReason(c.Query("reason")),
		Status: models.FlagReportStatus(c.Query("status")),
	}
	if id := optionalUintQuery(c, "reporter_id"); id != nil {
		filter.ReporterID = *id
	}
	if id := optionalUintQuery(c, "post_id"); id != nil {
		filter.PostID = *id
	}
	if id := optionalUintQuery(c, "comment_id"); id != nil {
		filter.CommentID = *id
	}
	if filter.CreatedAfter, err = optionalTimeQuery(c, "created_after"); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	if filter.CreatedBefore, err = optionalTimeQuery(c, "created_before"); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	reports, total, err := s.flagService.ListFlags(ctx, service.ListFlagsInput{
		Filter: filter,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, reports, total, page)
}

// GetFlag handles GET /api/flags/:id. Visible to the reporter and staff.
func (s *Server) GetFlag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	flagID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.flagService.GetFlag(ctx, memberID(c), flagID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(report)
}

// TriageFlag handles POST /api/flags/:id/status.
// @Summary Triage a flag report
// @Description Move a flag report through triage. Escalated reports are settled by administrators only.
// @Tags flags
// @Accept json
// @Produce json
// @Param id path int true "Flag report ID"
// @Param request body object{status=string,details=string} true "Next status and optional details amendment"
// @Success 200 {object} models.FlagReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /flags/{id}/status [post]
func (s *Server) TriageFlag(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reviewerID := memberID(c)
	flagID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status  string `json:"status"`
		Details string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.flagService.TriageFlag(ctx, service.TriageFlagInput{
		ReviewerMemberID: reviewerID,
		FlagID:           flagID,
		NextStatus:       models.FlagReportStatus(req.Status),
		Details:          req.Details,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if report.Status.Terminal() {
		s.publishMemberEvent(report.ReporterID, EventFlagTriaged, map[string]interface{}{
			"id":     report.ID,
			"status": report.Status,
		})
	}
	s.publishModerationEvent(EventFlagTriaged, map[string]interface{}{
		"id":     report.ID,
		"status": report.Status,
	})

	return c.JSON(report)
}
