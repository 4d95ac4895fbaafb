// Package moderation screens user-supplied answers before they are sent to a
// generative model. The check is a case-insensitive substring match against a
// static denylist: coarse on purpose, so a benign word that merely contains a
// denied token is still rejected.
package moderation

import (
	"strings"

	"github.com/phrazzld/madlib-comics/internal/domain"
)

// DefaultDenylist is the placeholder list of disallowed tokens. It is
// deliberately small; deployments replace it through configuration.
var DefaultDenylist = []string{
	"badword1", "badword2", "violence", "gore", "weapon", "drug",
	"sexy", "nude", "kill", "death", "blood", "hate",
}

// Moderator checks Field Maps against a denylist.
type Moderator struct {
	denylist []string
}

// NewModerator creates a Moderator for the given tokens. Tokens are
// lower-cased and blank tokens are dropped, so an empty value never matches.
func NewModerator(denylist []string) *Moderator {
	tokens := make([]string, 0, len(denylist))
	for _, token := range denylist {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return &Moderator{denylist: tokens}
}

// Default returns a Moderator using DefaultDenylist.
func Default() *Moderator {
	return NewModerator(DefaultDenylist)
}

// FromConfig returns a Moderator for a configured denylist, falling back to
// DefaultDenylist when the list has no usable token.
func FromConfig(denylist []string) *Moderator {
	m := NewModerator(denylist)
	if len(m.denylist) == 0 {
		return Default()
	}
	return m
}

// Denylist returns a copy of the active tokens.
func (m *Moderator) Denylist() []string {
	out := make([]string, len(m.denylist))
	copy(out, m.denylist)
	return out
}

// Moderate returns Rejected for the first field, in entry order, whose value
// contains a denied token, and Valid when no field does.
func (m *Moderator) Moderate(fields domain.FieldMap) domain.ModerationResult {
	for _, field := range fields {
		if m.matches(field.Value) {
			return domain.Rejected(field.Key)
		}
	}
	return domain.Valid()
}

func (m *Moderator) matches(value string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, token := range m.denylist {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
