package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/server/authflowrepo"
)

// SocialLoginHandler starts the authorization code flow for the provider in the path.
func (s *Server) SocialLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("provider")
		provider, ok := s.providers.Get(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		state := generateRandomString(32)
		if err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{Provider: name, ReturnURL: RouteHome}); err != nil {
			log.Err(err).Str("provider", name).Msg("failed to store auth flow state")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
	}
}

// SocialCallbackHandler completes the flow: the profile's email is resolved to a user, a session
// is created and its token set as a cookie. The browser is sent home whatever the outcome.
func (s *Server) SocialCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer redirectHome(w, r)

		name := r.PathValue("provider")
		logger := log.With().Str("provider", name).Logger()

		provider, ok := s.providers.Get(name)
		if !ok {
			logger.Warn().Msg("callback for unknown provider")
			return
		}

		q := r.URL.Query()
		if errorParam := q.Get("error"); errorParam != "" {
			logger.Info().Str("error", errorParam).Str("description", q.Get("error_description")).Msg("authorization declined")
			return
		}

		code, state := q.Get("code"), q.Get("state")
		if code == "" || state == "" {
			logger.Warn().Msg("missing code or state parameter")
			return
		}

		flow, err := s.authState.Take(state)
		if err != nil || flow.Provider != name {
			logger.Warn().Msg("invalid state parameter")
			return
		}

		profile, err := provider.Exchange(r.Context(), code)
		if err != nil {
			logger.Err(err).Msg("code exchange failed")
			return
		}

		session, err := s.auth.StartExternalSession(r.Context(), auth.ExternalIdentity{
			Email:     profile.Email,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
		})
		if err != nil {
			logger.Err(err).Msg("failed to start session from external identity")
			return
		}

		token, err := s.auth.IssueToken(session)
		if err != nil {
			logger.Err(err).Msg("failed to issue token")
			return
		}
		s.SetTokenCookie(w, r, token, session)
		logger.Info().Str("userId", session.UserID).Msg("social login")
	}
}
