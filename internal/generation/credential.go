package generation

import (
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderAPIKey is the value left in deployments whose secret was never
// substituted.
const PlaceholderAPIKey = "__API_KEY_PLACEHOLDER__"

// MinAPIKeyLength is the shortest credential accepted. Real keys are longer;
// anything shorter has almost certainly been truncated.
const MinAPIKeyLength = 20

var placeholderPattern = regexp.MustCompile(`(?i)^(__.*__|<.*>|\$\{.*\}|your[_-]?(gemini[_-]?)?api[_-]?key.*|changeme|xxx+)$`)

// CleanAPIKey removes quotes and surrounding whitespace from a raw credential.
func CleanAPIKey(raw string) string {
	return strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(raw))
}

// IsPlaceholderAPIKey reports whether key is empty or a recognisable
// placeholder rather than a real credential.
func IsPlaceholderAPIKey(key string) bool {
	key = CleanAPIKey(key)
	return key == "" || key == PlaceholderAPIKey || placeholderPattern.MatchString(key)
}

// ValidateAPIKey rejects missing, placeholder and truncated credentials.
// The returned error wraps ErrInvalidConfig and never contains the key itself.
func ValidateAPIKey(key string) error {
	key = CleanAPIKey(key)
	if key == "" {
		return fmt.Errorf("%w: API key is missing, set API_KEY", ErrInvalidConfig)
	}
	if IsPlaceholderAPIKey(key) {
		return fmt.Errorf("%w: API key is still a placeholder value, set API_KEY", ErrInvalidConfig)
	}
	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("%w: API key is too short (%d chars), it may have been truncated",
			ErrInvalidConfig, len(key))
	}
	return nil
}
