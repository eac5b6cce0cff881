package security

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

// Headers that carry myDATA credentials or session state.
var sensitiveHeaders = map[string]bool{
	"authorization":             true,
	"proxy-authorization":       true,
	"cookie":                    true,
	"set-cookie":                true,
	"aade-user-id":              true,
	"ocp-apim-subscription-key": true,
	"x-api-key":                 true,
}

// Substrings of JSON field and query names that are redacted, compared
// lowercase. aadeUserId and subscriptionKey are the myDATA credentials.
var sensitiveFields = []string{
	"aadeuserid",
	"subscriptionkey",
	"password",
	"secret",
	"token",
	"authorization",
	"apikey",
	"api_key",
	"credential",
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, f := range sensitiveFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// SanitizeHeaders flattens headers into a map with credentials redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody returns body as JSON with sensitive fields redacted. Non-JSON
// text is wrapped in an object, binary bodies such as rendered PDFs are
// base64 encoded, and anything over maxSize is truncated.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if !utf8.Valid(body) {
		return marshal(map[string]any{
			"_binary": true,
			"_size":   len(body),
			"_base64": base64.StdEncoding.EncodeToString(truncate(body, maxSize)),
		})
	}
	if maxSize > 0 && len(body) > maxSize {
		return marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return marshal(map[string]any{"_raw": string(body), "_format": "text"})
	}
	return marshal(sanitizeValue(data))
}

func truncate(b []byte, maxSize int) []byte {
	if maxSize > 0 && len(b) > maxSize {
		return b[:maxSize]
	}
	return b
}

func marshal(v any) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isSensitive(k) {
				out[k] = redactedValue
			} else {
				out[k] = sanitizeValue(item)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return val
	}
}

// SanitizeURL redacts sensitive query parameters. An unparsable URL is
// returned without its query.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	if u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for name := range q {
		if isSensitive(name) {
			q.Set(name, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
