package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tribunal/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateActionHandler(t *testing.T) {
	db := setupServerDB(t)
	seedServerFixtures(t, db)
	s := newTestServer(t, db)

	app := fiber.New()
	app.Post("/actions", asMember(2), s.CreateAction)
	app.Post("/actions-as-plain", asMember(3), s.CreateAction)

	t.Run("moderator records an action", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
			"target_member_id": 3,
			"action_type":      "warn",
			"action_reason":    "spamming the boards",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var action models.ModerationAction
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&action))
		assert.Equal(t, models.ActionStatusActive, action.Status)
		assert.NotZero(t, action.ID)
	})

	t.Run("member without grant is rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/actions-as-plain", map[string]interface{}{
			"target_member_id": 3,
			"action_type":      "warn",
			"action_reason":    "spamming",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("invalid action type", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
			"target_member_id": 3,
			"action_type":      "banana",
			"action_reason":    "r",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetActionsHandler(t *testing.T) {
	db := setupServerDB(t)
	seedServerFixtures(t, db)
	s := newTestServer(t, db)

	app := fiber.New()
	app.Post("/actions", asMember(2), s.CreateAction)
	app.Get("/actions", asMember(2), s.GetActions)

	req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
		"target_member_id": 3,
		"action_type":      "mute",
		"action_reason":    "cool off",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	t.Run("filtered listing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/actions?status=active&action_type=mute", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data  []models.ModerationActionSummary `json:"data"`
			Total int64                            `json:"total"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(1), body.Total)
		require.Len(t, body.Data, 1)
		assert.Equal(t, models.ActionTypeMute, body.Data[0].ActionType)
	})

	t.Run("target post filter", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Post{ID: 1, AuthorMemberID: 3, Title: "hot take"}).Error)
		req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
			"target_post_id": 1,
			"action_type":    "remove_content",
			"action_reason":  "rule violation",
		})
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		listReq := httptest.NewRequest(http.MethodGet, "/actions?target_post_id=1", nil)
		listResp, err := app.Test(listReq)
		require.NoError(t, err)
		defer func() { _ = listResp.Body.Close() }()
		assert.Equal(t, http.StatusOK, listResp.StatusCode)

		var body struct {
			Data  []models.ModerationActionSummary `json:"data"`
			Total int64                            `json:"total"`
		}
		require.NoError(t, json.NewDecoder(listResp.Body).Decode(&body))
		assert.Equal(t, int64(1), body.Total)
		require.Len(t, body.Data, 1)
		assert.Equal(t, models.ActionTypeRemoveContent, body.Data[0].ActionType)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/actions?status=bogus", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("created window filter", func(t *testing.T) {
		cutoff := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
		req := httptest.NewRequest(http.MethodGet, "/actions?created_after="+cutoff, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(0), body.Total)
	})

	t.Run("malformed window filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/actions?created_after=yesterday", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTransitionActionHandler(t *testing.T) {
	db := setupServerDB(t)
	seedServerFixtures(t, db)
	s := newTestServer(t, db)

	app := fiber.New()
	app.Post("/actions", asMember(2), s.CreateAction)
	app.Post("/actions/:id/status", asMember(2), s.TransitionAction)

	req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
		"target_member_id": 3,
		"action_type":      "warn",
		"action_reason":    "spamming",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var action models.ModerationAction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&action))
	_ = resp.Body.Close()

	t.Run("active to completed", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost,
			fmt.Sprintf("/actions/%d/status", action.ID),
			map[string]interface{}{"status": "completed"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.ModerationAction
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
		assert.Equal(t, models.ActionStatusCompleted, updated.Status)
	})

	t.Run("illegal transition conflicts", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost,
			fmt.Sprintf("/actions/%d/status", action.ID),
			map[string]interface{}{"status": "active"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestDeleteActionHandler(t *testing.T) {
	db := setupServerDB(t)
	seedServerFixtures(t, db)
	s := newTestServer(t, db)

	app := fiber.New()
	app.Post("/actions", asMember(2), s.CreateAction)
	app.Delete("/admin/actions/:id", asMember(1), s.DeleteAction)

	req := jsonRequest(t, http.MethodPost, "/actions", map[string]interface{}{
		"target_member_id": 3,
		"action_type":      "warn",
		"action_reason":    "spamming",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var action models.ModerationAction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&action))
	_ = resp.Body.Close()

	delReq := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/admin/actions/%d", action.ID), nil)
	delResp, err := app.Test(delReq)
	require.NoError(t, err)
	defer func() { _ = delResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.ModerationAction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
