package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const (
	// FacebookName is the provider name and route segment.
	FacebookName = "facebook"

	defaultGraphURL = "https://graph.facebook.com"
	profileFields   = "id,email,first_name,last_name"
)

type FacebookConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Facebook logs users in with Facebook and reads their profile from the Graph API.
type Facebook struct {
	oauth2Config *oauth2.Config
	graphURL     string
}

type FacebookOption func(*Facebook)

// WithFacebookEndpoint overrides the OAuth2 endpoints.
func WithFacebookEndpoint(endpoint oauth2.Endpoint) FacebookOption {
	return func(f *Facebook) {
		f.oauth2Config.Endpoint = endpoint
	}
}

// WithGraphURL overrides the Graph API base URL.
func WithGraphURL(graphURL string) FacebookOption {
	return func(f *Facebook) {
		f.graphURL = strings.TrimRight(graphURL, "/")
	}
}

func NewFacebook(cfg FacebookConfig, opts ...FacebookOption) (*Facebook, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[NewFacebook] client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("[NewFacebook] client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("[NewFacebook] redirect URL is required")
	}

	f := &Facebook{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"public_profile", "email"},
		},
		graphURL: defaultGraphURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Facebook) Name() string {
	return FacebookName
}

func (f *Facebook) AuthCodeURL(state string) string {
	return f.oauth2Config.AuthCodeURL(state)
}

type facebookProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (f *Facebook) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := f.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[Facebook Exchange] token exchange failed")
	}

	endpoint := f.graphURL + "/me?" + url.Values{"fields": {profileFields}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Facebook Exchange]")
	}

	resp, err := f.oauth2Config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Facebook Exchange] profile request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[Facebook Exchange] profile request returned %d", resp.StatusCode)
	}

	var fb facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return nil, errors.Wrap(err, "[Facebook Exchange] failed to decode profile")
	}
	if fb.Email == "" {
		return nil, ErrProfileIncomplete
	}

	return &Profile{
		Subject:   fb.ID,
		Email:     fb.Email,
		FirstName: fb.FirstName,
		LastName:  fb.LastName,
	}, nil
}
