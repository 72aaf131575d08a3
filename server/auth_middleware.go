package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyToken stores the raw bearer token
	ContextKeyToken ContextKey = "token"
	// ContextKeySession stores the resolved session
	ContextKeySession ContextKey = "session"
)

// TokenMiddleware extracts the bearer token from the Authorization header or, failing that,
// the token cookie. A missing token is not an error here.
func (s *Server) TokenMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			r = r.WithContext(context.WithValue(r.Context(), ContextKeyToken, token))
		}
		next(w, r)
	}
}

// RequireSession resolves the token and rejects the request with 401 when it does not
// resolve. Chain after TokenMiddleware.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromContext(r.Context())
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		session, err := s.auth.ResolveToken(r.Context(), token)
		if err != nil {
			if apperrors.IsSessionError(err) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			logStoreError(r, err)
			writeInternalError(w)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, session)))
	}
}

// TokenFromContext returns the token TokenMiddleware stored, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyToken).(string)
	return token
}

// SessionFromContext returns the session RequireSession stored, or nil.
func SessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}

// tokenFromRequest reads "Authorization: [Bearer ]<token>" first, then the token cookie.
func tokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
			header = strings.TrimSpace(header[len("bearer "):])
		}
		if header != "" {
			return header
		}
	}

	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
