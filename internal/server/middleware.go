package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// requestLogger logs HTTP requests with structured logging.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Debug(config.MsgHTTPRequest,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyMethod, r.Method,
			config.LogKeyPath, r.URL.Path,
			config.LogKeyRemote, r.RemoteAddr,
			config.LogKeyStatus, status,
			config.LogKeyDuration, time.Since(start).Milliseconds(),
			config.LogKeyRequestID, middleware.GetReqID(r.Context()),
		)
	})
}
