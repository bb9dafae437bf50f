// Package validation holds input validation shared by operator tooling and
// seeding.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var nicknameRegex = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// Names that collide with routes, staff vocabulary, or system accounts.
var reservedNicknames = map[string]struct{}{
	"admin":         {},
	"administrator": {},
	"api":           {},
	"appeals":       {},
	"flags":         {},
	"members":       {},
	"metrics":       {},
	"mod":           {},
	"moderator":     {},
	"root":          {},
	"staff":         {},
	"swagger":       {},
	"system":        {},
	"tribunal":      {},
}

// ValidateNickname validates member nickname format and reserved names.
func ValidateNickname(nickname string) error {
	if !nicknameRegex.MatchString(nickname) {
		return fmt.Errorf("nickname must be 3-24 characters and contain only lowercase letters, numbers, and underscores")
	}

	if strings.HasPrefix(nickname, "_") || strings.HasSuffix(nickname, "_") {
		return fmt.Errorf("nickname cannot start or end with an underscore")
	}

	if _, exists := reservedNicknames[nickname]; exists {
		return fmt.Errorf("nickname is reserved")
	}

	return nil
}
