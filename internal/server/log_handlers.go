package server

import (
	"strings"

	"tribunal/internal/models"
	"tribunal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetActionLogs handles GET /api/actions/:id/logs. The log reads as a
// timeline, oldest entry first.
// @Summary List an action's log entries
// @Description Return the append-only log timeline for a moderation action.
// @Tags logs
// @Produce json
// @Param id path int true "Action ID"
// @Param actor_member_id query int false "Filter by acting member"
// @Success 200 {object} object{data=[]models.ModerationLog,total=int}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions/{id}/logs [get]
func (s *Server) GetActionLogs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	var actorID uint
	if id := optionalUintQuery(c, "actor_member_id"); id != nil {
		actorID = *id
	}

	entries, total, err := s.logService.ListEntries(ctx, actionID, actorID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return pageResponse(c, entries, total, page)
}

// AppendActionLog handles POST /api/actions/:id/logs.
// @Summary Append a log entry
// @Description Append an audit entry to an action's log. The event ID is assigned server-side.
// @Tags logs
// @Accept json
// @Produce json
// @Param id path int true "Action ID"
// @Param request body object{event_type=string,event_details=string} true "Entry details"
// @Success 201 {object} models.ModerationLog
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions/{id}/logs [post]
func (s *Server) AppendActionLog(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := memberID(c)
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		EventType    string `json:"event_type"`
		EventDetails string `json:"event_details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.logService.AppendEntry(ctx, service.AppendLogInput{
		ActorMemberID: actorID,
		ActionID:      actionID,
		EventType:     strings.TrimSpace(req.EventType),
		EventDetails:  req.EventDetails,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetLogEntry handles GET /api/logs/:id.
func (s *Server) GetLogEntry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	entry, err := s.logService.GetEntry(ctx, logID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(entry)
}

// GetLogEntryByEventID handles GET /api/logs/events/:eventId. Event IDs are
// the externally quotable identifiers, so staff tooling resolves them here.
func (s *Server) GetLogEntryByEventID(c *fiber.Ctx) error {
	ctx := c.UserContext()
	eventID := strings.TrimSpace(c.Params("eventId"))
	if eventID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid event ID"))
	}

	entry, err := s.logService.GetEntryByEventID(ctx, eventID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(entry)
}

// CorrectLogEntry handles POST /api/actions/:id/logs/:logId/correct.
// @Summary Correct a log entry's details
// @Description Rewrite event_details on an entry and record the correction itself in the log. Allowed for the recording moderator and administrators.
// @Tags logs
// @Accept json
// @Produce json
// @Param id path int true "Action ID"
// @Param logId path int true "Log entry ID"
// @Param request body object{event_details=string,reason=string} true "Corrected details"
// @Success 200 {object} models.ModerationLog
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions/{id}/logs/{logId}/correct [post]
func (s *Server) CorrectLogEntry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := memberID(c)
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	logID, err := s.parseID(c, "logId")
	if err != nil {
		return nil
	}

	var req struct {
		EventDetails string `json:"event_details"`
		Reason       string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.logService.CorrectDetails(ctx, service.CorrectLogDetailsInput{
		ActorMemberID: actorID,
		ActionID:      actionID,
		LogID:         logID,
		NewDetails:    req.EventDetails,
		Reason:        req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(entry)
}
