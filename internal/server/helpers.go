// Package server contains the HTTP handlers for the moderation engine's API endpoints.
package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"tribunal/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given
// default limit. A present but negative or non-numeric value is a validation
// error, not a silent clamp.
func parsePagination(c *fiber.Ctx, defaultLimit int) (Pagination, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return Pagination{}, models.NewValidationError("Invalid limit")
		}
		limit = v
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := 0
	if raw := strings.TrimSpace(c.Query("offset")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return Pagination{}, models.NewValidationError("Invalid offset")
		}
		offset = v
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}, nil
}

// pageResponse writes a paginated listing envelope.
func pageResponse(c *fiber.Ctx, items interface{}, total int64, page Pagination) error {
	return c.JSON(fiber.Map{
		"data":   items,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "memberId" -> "Invalid member ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "memberId" -> "member ID", "eventId" -> "event ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	// Split on camelCase boundary before the trailing "Id" suffix.
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// memberID returns the authenticated member's ID from request locals.
// AuthRequired guarantees the value exists on protected routes.
func memberID(c *fiber.Ctx) uint {
	return c.Locals("memberID").(uint)
}

// optionalUintQuery parses a positive uint query parameter, returning nil
// when absent or malformed.
func optionalUintQuery(c *fiber.Ctx, name string) *uint {
	v := c.QueryInt(name, 0)
	if v <= 0 {
		return nil
	}
	id := uint(v)
	return &id
}

// optionalTimeQuery parses an RFC 3339 query parameter. A present but
// malformed value is a validation error rather than a silent no-filter.
func optionalTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, models.NewValidationError("Invalid " + name + " timestamp, expected RFC 3339")
	}
	return &ts, nil
}

func (s *Server) isAdminByMemberID(ctx context.Context, memberID uint) (bool, error) {
	return s.roleService.IsAdministrator(ctx, memberID)
}

func (s *Server) isStaffByMemberID(ctx context.Context, memberID uint) (bool, error) {
	roles, err := s.roleService.RolesFor(ctx, memberID)
	if err != nil {
		return false, err
	}
	return roles.Staff(), nil
}
