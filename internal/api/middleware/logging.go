package middleware

import (
	"context"
	"net/http"
	"time"

	"contest_arena/internal/platform/logger"

	"github.com/go-chi/chi/v5/middleware"
)

type requestFieldsKey struct{}

// requestFields is filled in by inner middleware for the request log line.
type requestFields struct {
	userID string
}

func setLoggedUser(ctx context.Context, userID string) {
	if f, ok := ctx.Value(requestFieldsKey{}).(*requestFields); ok {
		f.userID = userID
	}
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		fields := &requestFields{}
		r = r.WithContext(context.WithValue(r.Context(), requestFieldsKey{}, fields))

		defer func() {
			status := ww.Status()
			event := logger.Info()
			switch {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			}
			if fields.userID != "" {
				event = event.Str("user_id", fields.userID)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
