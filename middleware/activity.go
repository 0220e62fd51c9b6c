package middleware

import (
	"net/http"
	"time"

	shield "github.com/yatrik/shield"
	"github.com/yatrik/shield/audit"
)

// statusRecorder captures the status code written by the wrapped handler so
// the outcome can be logged once it is known.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Activity is the implicit audit shape: it wraps the response, and once the
// handler has run it records one activity entry with the observed status
// and elapsed time. Only requests carrying an authenticated principal
// (see shield.WithUser — Guard attaches it) are logged. Dispatch happens
// after the handler completes and never delays the response.
func Activity(engine *shield.Engine, action audit.Action, description string, severity audit.Severity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			user, ok := shield.UserFromContext(r.Context())
			if !ok {
				return
			}
			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}

			engine.RecordActivity(r.Context(), audit.Record{
				UserID:         user.UserID,
				Username:       user.Username,
				Action:         action,
				Description:    description,
				IPAddress:      ClientIP(r),
				UserAgent:      r.UserAgent(),
				Method:         r.Method,
				Endpoint:       r.URL.RequestURI(),
				StatusCode:     status,
				ResponseTimeMs: time.Since(start).Milliseconds(),
				Severity:       severity,
			})
		})
	}
}
