package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/sessions"
)

// tokenCookieName is the cookie carrying the bearer token to browsers
const tokenCookieName = "reactQLJWT"

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// SetTokenCookie stores the bearer token in a cookie that expires with the session.
func (s *Server) SetTokenCookie(w http.ResponseWriter, r *http.Request, token string, session *sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt.UTC(),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

// writeInternalError hides store and hashing faults behind a generic body.
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func logStoreError(r *http.Request, err error) {
	log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
}

// redirectHome sends the browser back to the application root.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RouteHome, http.StatusFound)
}
