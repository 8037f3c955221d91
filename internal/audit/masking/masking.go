package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]struct{}{
	"phone":   {},
	"email":   {},
	"address": {},
}

// MaskContact redacts a contact value, keeping the last four characters
// so an operator can still tell entries apart.
func MaskContact(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskJSON returns a copy of input with contact fields redacted. Other
// values are copied as is.
func MaskJSON(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
			return MaskContact(cast)
		}
		return cast
	case map[string]any:
		return MaskJSON(cast)
	default:
		return value
	}
}
