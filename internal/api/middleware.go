package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/codewithboateng/archlint/internal/security"
)

type ctxKey int

const actorKey ctxKey = 1

// withAdmin admits requests carrying "Authorization: Bearer <token>" whose
// token matches AdminTokenHash, and audits the action.
func (s *Server) withAdmin(next http.HandlerFunc, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearer(r)
		if !ok || !security.CheckToken(s.AdminTokenHash, tok) {
			s.err(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		actor := strings.TrimSpace(r.Header.Get("X-Archlint-Actor"))
		if actor == "" {
			actor = "admin"
		}
		_ = s.DB.LogAudit(actor, action, r.URL.Path, map[string]any{"method": r.Method, "ip": r.RemoteAddr})
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	}
}

func actorFromCtx(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey).(string); ok {
		return a
	}
	return ""
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const p = "Bearer "
	if len(h) <= len(p) || !strings.EqualFold(h[:len(p)], p) {
		return "", false
	}
	return strings.TrimSpace(h[len(p):]), true
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.Logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", sw.code, "dur", time.Since(start))
	})
}
