package backend

import (
	"bytes"
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bizquiz/internal/wire"
)

const (
	skipBrowserWarningHeader = "ngrok-skip-browser-warning"
	maxLoggedErrorBody       = 512
)

// statusRecorder captures the status and size of a response, keeping the
// first maxLogBytes of the body for error logs.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	wroteHeader  bool
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedErrorBody,
		}

		next.ServeHTTP(recorder, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int("bytes", recorder.bytesWritten),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}

		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			fields = append(fields, zap.String("body", recorder.logBody.String()), zap.Bool("body_truncated", recorder.truncated))
			zap.L().Error("request failed", fields...)
		case recorder.statusCode >= http.StatusBadRequest:
			fields = append(fields, zap.String("body", recorder.logBody.String()))
			zap.L().Warn("request rejected", fields...)
		default:
			zap.L().Info("request served", fields...)
		}
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func (a *API) isAdmin(r *http.Request) bool {
	if a.cfg.AdminToken == "" {
		return false
	}
	token := bearerToken(r)
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.AdminToken)) == 1
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.AdminToken == "" {
			writeJSON(w, http.StatusForbidden, errorResponse("admin routes are disabled"))
			return
		}
		if !a.isAdmin(r) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("admin token required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userContextKey struct{}

// requireUser admits requests bearing a session token issued by /login or
// /auth/register. The admin token is accepted as well.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r)
		if token == "" {
			writeServiceError(w, ErrUnauthorized)
			return
		}
		user, err := a.store.UserByToken(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

// requestUser returns the user resolved by requireUser; ok is false for admin requests.
func requestUser(r *http.Request) (wire.User, bool) {
	user, ok := r.Context().Value(userContextKey{}).(wire.User)
	return user, ok
}
