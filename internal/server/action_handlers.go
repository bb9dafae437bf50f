package server

import (
	"time"

	"tribunal/internal/models"
	"tribunal/internal/repository"
	"tribunal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAction handles POST /api/actions.
// @Summary Record a moderation action
// @Description Record an enforcement decision against a member, post, or comment. Requires an active moderator grant.
// @Tags actions
// @Accept json
// @Produce json
// @Param request body object{target_member_id=int,target_post_id=int,target_comment_id=int,action_type=string,action_reason=string,decision_narrative=string,details=string,effective_from=string,effective_until=string} true "Action details"
// @Success 201 {object} models.ModerationAction
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions [post]
func (s *Server) CreateAction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := memberID(c)

	var req struct {
		TargetMemberID    *uint      `json:"target_member_id"`
		TargetPostID      *uint      `json:"target_post_id"`
		TargetCommentID   *uint      `json:"target_comment_id"`
		ActionType        string     `json:"action_type"`
		ActionReason      string     `json:"action_reason"`
		DecisionNarrative string     `json:"decision_narrative"`
		Details           string     `json:"details"`
		EffectiveFrom     *time.Time `json:"effective_from"`
		EffectiveUntil    *time.Time `json:"effective_until"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := s.actionService.CreateAction(ctx, service.CreateActionInput{
		ActorMemberID:   actorID,
		TargetMemberID:  req.TargetMemberID,
		TargetPostID:    req.TargetPostID,
		TargetCommentID: req.TargetCommentID,
		ActionType:      models.ModerationActionType(req.ActionType),
		ActionReason:    req.ActionReason,
		Narrative:       req.DecisionNarrative,
		Details:         req.Details,
		EffectiveFrom:   req.EffectiveFrom,
		EffectiveUntil:  req.EffectiveUntil,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishModerationEvent(EventActionRecorded, map[string]interface{}{
		"id":          action.ID,
		"action_type": action.ActionType,
		"status":      action.Status,
	})
	if action.TargetMemberID != nil {
		s.publishMemberEvent(*action.TargetMemberID, EventActionRecorded, map[string]interface{}{
			"id":          action.ID,
			"action_type": action.ActionType,
			"reason":      action.ActionReason,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(action)
}

// GetActions handles GET /api/actions.
// @Summary List moderation actions
// @Description List action summaries with optional filters.
// @Tags actions
// @Produce json
// @Param moderator_id query int false "Filter by moderator grant ID"
// @Param target_member_id query int false "Filter by target member"
// @Param target_post_id query int false "Filter by target post"
// @Param target_comment_id query int false "Filter by target comment"
// @Param action_type query string false "Filter by action type"
// @Param status query string false "Filter by status"
// @Success 200 {object} object{data=[]models.ModerationActionSummary,total=int}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions [get]
func (s *Server) GetActions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := parsePagination(c, 50)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	filter := repository.ActionFilter{
		ActionType: models.ModerationActionType(c.Query("action_type")),
		Status:     models.ModerationActionStatus(c.Query("status")),
	}
	if id := optionalUintQuery(c, "moderator_id"); id != nil {
		filter.ModeratorID = *id
	}
	if id := optionalUintQuery(c, "target_member_id"); id != nil {
		filter.TargetMemberID = *id
	}
	if id := optionalUintQuery(c, "target_post_id"); id != nil {
		filter.TargetPostID = *id
	}
	if id := optionalUintQuery(c, "target_comment_id"); id != nil {
		filter.TargetCommentID = *id
	}
	if filter.CreatedAfter, err = optionalTimeQuery(c, "created_after"); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	if filter.CreatedBefore, err = optionalTimeQuery(c, "created_before"); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	if filter.EffectiveAt, err = optionalTimeQuery(c, "effective_at"); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	summaries, total, err := s.actionService.ListActions(ctx, service.ListActionsInput{
		Filter: filter,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return pageResponse(c, summaries, total, page)
}

// GetAction handles GET /api/actions/:id.
func (s *Server) GetAction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	action, err := s.actionService.GetAction(ctx, actionID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(action)
}

// TransitionAction handles POST /api/actions/:id/status.
// @Summary Transition an action's status
// @Description Move an action to completed or reversed. Transitions are checked against the lifecycle.
// @Tags actions
// @Accept json
// @Produce json
// @Param id path int true "Action ID"
// @Param request body object{status=string,note=string} true "Next status"
// @Success 200 {object} models.ModerationAction
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /actions/{id}/status [post]
func (s *Server) TransitionAction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := memberID(c)
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := s.actionService.TransitionStatus(ctx, service.TransitionActionInput{
		ActorMemberID: actorID,
		ActionID:      actionID,
		NextStatus:    models.ModerationActionStatus(req.Status),
		Note:          req.Note,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishModerationEvent(EventActionStatusChanged, map[string]interface{}{
		"id":     action.ID,
		"status": action.Status,
	})

	return c.JSON(action)
}

// UpdateAction handles PUT /api/actions/:id. Only the mutable columns move;
// moderator, type, target, and effective_from are frozen at creation.
func (s *Server) UpdateAction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := memberID(c)
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ActionReason      string     `json:"action_reason"`
		DecisionNarrative string     `json:"decision_narrative"`
		Details           string     `json:"details"`
		EffectiveUntil    *time.Time `json:"effective_until"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := s.actionService.UpdateAction(ctx, service.UpdateActionInput{
		ActorMemberID:  actorID,
		ActionID:       actionID,
		ActionReason:   req.ActionReason,
		Narrative:      req.DecisionNarrative,
		Details:        req.Details,
		EffectiveUntil: req.EffectiveUntil,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(action)
}

// DeleteAction handles DELETE /api/admin/actions/:id.
// @Summary Delete a moderation action
// @Description Hard-delete an action and its log entries. Administrator only.
// @Tags moderation-admin
// @Produce json
// @Param id path int true "Action ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/actions/{id} [delete]
func (s *Server) DeleteAction(c *fiber.Ctx) error {
	ctx := c.UserContext()
	adminID := memberID(c)
	actionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.actionService.DeleteAction(ctx, adminID, actionID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Action deleted"})
}
