// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using Logrus.
// Logs the method, path, and duration of each request.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": duration,
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogMatchConnect logs a message when a match WebSocket client connects.
func LogMatchConnect(logger *logrus.Logger, remoteAddr, matchID string) {
	logger.WithFields(logrus.Fields{
		"remote":   remoteAddr,
		"match_id": matchID,
	}).Info("match WebSocket connected")
}

// LogMatchDisconnect logs a message when a match WebSocket client disconnects.
func LogMatchDisconnect(logger *logrus.Logger, remoteAddr, matchID string, err error) {
	fields := logrus.Fields{
		"remote":   remoteAddr,
		"match_id": matchID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("match WebSocket disconnected")
}
