package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	shield "github.com/yatrik/shield"
)

// maxSanitizedBody bounds how much request body the sanitizer will buffer.
// Larger bodies pass through untouched rather than being truncated.
const maxSanitizedBody = 1 << 20

// Sanitize rewrites the request's query string and JSON body through the
// Engine's sanitization pipeline: pollution guard, injection guard, markup
// sanitizer, and the telemetry-only detector.
//
// Fail-open throughout: a body that is not JSON, too large, or unreadable
// proceeds unmodified. The middleware never rejects a request.
func Sanitize(engine *shield.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := shield.WithClientIP(r.Context(), ClientIP(r))
			ctx = shield.WithUserAgent(ctx, r.UserAgent())
			r = r.WithContext(ctx)

			sanitizeQuery(engine, r)
			sanitizeBody(engine, r)

			next.ServeHTTP(w, r)
		})
	}
}

func sanitizeQuery(engine *shield.Engine, r *http.Request) {
	if r.URL.RawQuery == "" {
		return
	}

	values := engine.CollapseQuery(r.URL.Query())

	// Rebuild a JSON-shaped view so the pipeline's recursive contract
	// covers repeated keys as arrays.
	shaped := make(map[string]interface{}, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			shaped[key] = vals[0]
			continue
		}
		arr := make([]interface{}, len(vals))
		for i, v := range vals {
			arr[i] = v
		}
		shaped[key] = arr
	}

	cleaned, ok := engine.SanitizeValue(r.Context(), "query", shaped).(map[string]interface{})
	if !ok {
		return
	}

	rebuilt := make(url.Values, len(cleaned))
	for key, val := range cleaned {
		switch t := val.(type) {
		case string:
			rebuilt[key] = []string{t}
		case []interface{}:
			var flat []string
			for _, el := range t {
				if s, ok := el.(string); ok {
					flat = append(flat, s)
				}
			}
			rebuilt[key] = flat
		}
	}
	r.URL.RawQuery = rebuilt.Encode()
}

func sanitizeBody(engine *shield.Engine, r *http.Request) {
	if r.Body == nil || r.ContentLength == 0 || r.ContentLength > maxSanitizedBody {
		return
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSanitizedBody+1))
	_ = r.Body.Close()
	if err != nil || len(raw) > maxSanitizedBody {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	cleaned := engine.SanitizeValue(r.Context(), "body", decoded)
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(encoded))
	r.ContentLength = int64(len(encoded))
}
