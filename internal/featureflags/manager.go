// Package featureflags evaluates runtime flags from a key=value config
// string, e.g. "signups=on,hot_sort=25%,geocoding=off".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type flagValue struct {
	enabled bool
	percent int
	rollout bool
}

// Manager holds parsed flags. Values are fixed at startup; flipping a
// flag means restarting with a new FEATURE_FLAGS string.
type Manager struct {
	flags map[string]flagValue
}

// NewManager parses a comma-separated flag list. Malformed pairs are
// skipped. Supported values: on/true/1, off/false/0, and N% for a
// deterministic per-user rollout.
func NewManager(raw string) *Manager {
	flags := make(map[string]flagValue)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value, ok := parseValue(normalize(parts[1]))
		if key == "" || !ok {
			continue
		}
		flags[key] = value
	}

	return &Manager{flags: flags}
}

func parseValue(s string) (flagValue, bool) {
	switch s {
	case "on", "true", "1":
		return flagValue{enabled: true}, true
	case "off", "false", "0":
		return flagValue{}, true
	}
	if pct, found := strings.CutSuffix(s, "%"); found {
		n, err := strconv.Atoi(pct)
		if err != nil {
			return flagValue{}, false
		}
		return flagValue{percent: n, rollout: true}, true
	}
	return flagValue{}, false
}

// Enabled reports whether a flag is on for the given user. Unknown
// flags are off; use EnabledOrDefault for flags that default on.
func (m *Manager) Enabled(name string, userID uint) bool {
	return m.EnabledOrDefault(name, userID, false)
}

// EnabledOrDefault is Enabled with an explicit value for flags that are
// not configured at all.
func (m *Manager) EnabledOrDefault(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}
	v, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}
	if !v.rollout {
		return v.enabled
	}
	if v.percent <= 0 {
		return false
	}
	if v.percent >= 100 {
		return true
	}
	// Rollouts bucket by user, so anonymous callers stay out.
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < v.percent
}

// Snapshot evaluates every configured flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
