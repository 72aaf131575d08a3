package social_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-session-auth/social"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFacebookServer(t *testing.T, profile map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fb-access", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fb-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "id,email,first_name,last_name", r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFacebook(t *testing.T, srv *httptest.Server) *social.Facebook {
	t.Helper()
	fb, err := social.NewFacebook(social.FacebookConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/facebook/callback",
	},
		social.WithFacebookEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/dialog/oauth",
			TokenURL:  srv.URL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		social.WithGraphURL(srv.URL+"/"),
	)
	require.NoError(t, err)
	return fb
}

func TestNewFacebook_RequiresConfig(t *testing.T) {
	_, err := social.NewFacebook(social.FacebookConfig{ClientSecret: "s", RedirectURL: "r"})
	require.Error(t, err)
	_, err = social.NewFacebook(social.FacebookConfig{ClientID: "c", RedirectURL: "r"})
	require.Error(t, err)
	_, err = social.NewFacebook(social.FacebookConfig{ClientID: "c", ClientSecret: "s"})
	require.Error(t, err)
}

func TestFacebook_AuthCodeURL(t *testing.T) {
	fb, err := social.NewFacebook(social.FacebookConfig{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	require.NoError(t, err)
	require.Equal(t, social.FacebookName, fb.Name())

	u, err := url.Parse(fb.AuthCodeURL("xyz"))
	require.NoError(t, err)
	require.Equal(t, "www.facebook.com", u.Host)
	require.Equal(t, "xyz", u.Query().Get("state"))
	require.Equal(t, "client", u.Query().Get("client_id"))
	require.Equal(t, "public_profile email", u.Query().Get("scope"))
}

func TestFacebook_Exchange(t *testing.T) {
	srv := newFacebookServer(t, map[string]string{
		"id": "1001", "email": "jane@example.com", "first_name": "Jane", "last_name": "Doe",
	})
	fb := newFacebook(t, srv)

	profile, err := fb.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, &social.Profile{Subject: "1001", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}, profile)
}

func TestFacebook_ExchangeBadCode(t *testing.T) {
	srv := newFacebookServer(t, map[string]string{"id": "1001", "email": "jane@example.com"})
	fb := newFacebook(t, srv)

	_, err := fb.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
}

func TestFacebook_ExchangeWithoutEmail(t *testing.T) {
	srv := newFacebookServer(t, map[string]string{"id": "1001", "first_name": "Jane"})
	fb := newFacebook(t, srv)

	_, err := fb.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, social.ErrProfileIncomplete)
}

func TestRegistry(t *testing.T) {
	fb, err := social.NewFacebook(social.FacebookConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"})
	require.NoError(t, err)

	reg := social.NewRegistry(fb, nil)
	p, ok := reg.Get("facebook")
	require.True(t, ok)
	require.Equal(t, fb, p)

	_, ok = reg.Get("twitter")
	require.False(t, ok)
	require.Equal(t, []string{"facebook"}, reg.Names())
}
