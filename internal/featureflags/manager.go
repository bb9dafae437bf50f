// Package featureflags evaluates the engine's runtime toggles. Flags arrive
// as a comma-separated key=value list from config, e.g.
// "admin_events=on,appeal_digest=25%,legacy_triage=off". The admin_events
// flag gates the moderation event feed.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Manager holds the parsed flag table. A nil Manager answers false for
// every flag.
type Manager struct {
	flags map[string]string
}

// NewManager parses the config string. Malformed pairs are skipped so a
// typo in one flag cannot block startup.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = canon(name)
		value = canon(value)
		if name == "" || value == "" {
			continue
		}
		flags[name] = value
	}

	return &Manager{flags: flags}
}

// Enabled evaluates a flag for one member. Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic per-member rollout, e.g. 25%)
func (m *Manager) Enabled(name string, memberID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[canon(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if pctRaw, ok := strings.CutSuffix(value, "%"); ok {
		pct, err := strconv.Atoi(pctRaw)
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		// Unauthenticated callers have no stable bucket.
		if memberID == 0 {
			return false
		}
		return rolloutBucket(name, memberID) < pct
	}

	return false
}

// Raw returns a copy of the configured flag values, for the admin listing.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns every flag evaluated for one member.
func (m *Manager) Snapshot(memberID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, memberID)
	}
	return out
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// rolloutBucket maps a member into [0,100) stably per flag, so a rollout
// percentage bump only ever adds members.
func rolloutBucket(name string, memberID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", canon(name), memberID)))
	return int(h.Sum32() % 100)
}
