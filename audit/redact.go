package audit

import "strings"

const redactedPlaceholder = "[REDACTED]"

var sensitiveKeyMarkers = []string{"password", "token", "secret", "authorization"}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range sensitiveKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Redact returns a copy of data with the value of every password/token/secret
// keyed entry replaced, at any nesting depth. The logger itself never
// inspects payloads; callers run Redact before handing data to a record.
func Redact(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if sensitiveKey(key) {
			out[key] = redactedPlaceholder
			continue
		}
		switch t := value.(type) {
		case map[string]interface{}:
			out[key] = Redact(t)
		case []interface{}:
			cleaned := make([]interface{}, len(t))
			for i, el := range t {
				if nested, ok := el.(map[string]interface{}); ok {
					cleaned[i] = Redact(nested)
				} else {
					cleaned[i] = el
				}
			}
			out[key] = cleaned
		default:
			out[key] = value
		}
	}
	return out
}
