package server

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-auth/auth"
	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/users"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Field failures are reported with 200 and ok=false, the same way the session check is.
type userResponse struct {
	OK     bool              `json:"ok"`
	Errors []auth.FieldError `json:"errors"`
	User   *users.User       `json:"user,omitempty"`
}

type sessionResponse struct {
	OK     bool              `json:"ok"`
	Errors []auth.FieldError `json:"errors"`
	JWT    string            `json:"jwt,omitempty"`
	User   *users.User       `json:"user,omitempty"`
}

type usersResponse struct {
	OK    bool          `json:"ok"`
	Users []*users.User `json:"users"`
}

type sessionsResponse struct {
	OK       bool                `json:"ok"`
	Sessions []*sessions.Session `json:"sessions"`
}

// RegisterHandler creates an account. It does not log the new user in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RegistrationInput
		if !decodeJSON(w, r, &input) {
			return
		}

		user, fe, err := s.auth.Register(r.Context(), input)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicateEmail) {
				fe = auth.NewFieldErrors()
				fe.Set(auth.FieldEmail, auth.MsgEmailTaken)
				writeJSON(w, http.StatusOK, userResponse{Errors: fe.Fields()})
				return
			}
			logStoreError(r, err)
			writeInternalError(w)
			return
		}
		if !fe.Empty() {
			writeJSON(w, http.StatusOK, userResponse{Errors: fe.Fields()})
			return
		}

		writeJSON(w, http.StatusOK, userResponse{OK: true, Errors: fe.Fields(), User: user})
	}
}

// LoginHandler checks credentials, returns the token and sets it as a cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.LoginInput
		if !decodeJSON(w, r, &input) {
			return
		}

		session, fe, err := s.auth.Login(r.Context(), input)
		if err != nil {
			logStoreError(r, err)
			writeInternalError(w)
			return
		}
		if !fe.Empty() {
			writeJSON(w, http.StatusOK, sessionResponse{Errors: fe.Fields()})
			return
		}

		token, err := s.auth.IssueToken(session)
		if err != nil {
			logStoreError(r, err)
			writeInternalError(w)
			return
		}

		s.SetTokenCookie(w, r, token, session)
		writeJSON(w, http.StatusOK, sessionResponse{OK: true, Errors: fe.Fields(), JWT: token, User: session.User})
	}
}

// SessionHandler reports who the presented token belongs to. A missing token is ok=false
// with no errors; a token that does not resolve gets a single session field error.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromContext(r.Context())
		if token == "" {
			writeJSON(w, http.StatusOK, sessionResponse{Errors: []auth.FieldError{}})
			return
		}

		session, err := s.auth.ResolveToken(r.Context(), token)
		if err != nil {
			if apperrors.IsSessionError(err) {
				fe := auth.NewFieldErrors()
				fe.Set(auth.FieldSession, auth.MsgInvalidSession)
				writeJSON(w, http.StatusOK, sessionResponse{Errors: fe.Fields()})
				return
			}
			logStoreError(r, err)
			writeInternalError(w)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{OK: true, Errors: []auth.FieldError{}, JWT: token, User: session.User})
	}
}

// ListUsersHandler pages through users with the offset and limit query parameters.
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset := utils.AtoiDefault(q.Get("offset"), 0)
		limit := utils.ClampLimit(utils.AtoiDefault(q.Get("limit"), 0), defaultPageSize, maxPageSize)

		list, err := s.auth.ListUsers(r.Context(), offset, limit)
		if err != nil {
			logStoreError(r, err)
			writeInternalError(w)
			return
		}
		writeJSON(w, http.StatusOK, usersResponse{OK: true, Users: list})
	}
}

// ListSessionsHandler lists the sessions of the caller. Chain after RequireSession.
func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := SessionFromContext(r.Context())
		if current == nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		list, err := s.auth.ListSessions(r.Context(), current.UserID)
		if err != nil {
			logStoreError(r, err)
			writeInternalError(w)
			return
		}
		writeJSON(w, http.StatusOK, sessionsResponse{OK: true, Sessions: list})
	}
}

// PreflightHandler answers CORS preflight requests; CorsMiddleware sets the headers.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
