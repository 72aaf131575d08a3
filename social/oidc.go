package social

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// OIDCName is the provider name and route segment.
const OIDCName = "oidc"

type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDC logs users in with any OpenID Connect issuer.
type OIDC struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewOIDC discovers the issuer's endpoints and keys.
func NewOIDC(ctx context.Context, cfg OIDCConfig) (*OIDC, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[NewOIDC] issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[NewOIDC] client ID is required")
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(initCtx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDC] failed to initialize OIDC provider")
	}

	return &OIDC{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (o *OIDC) Name() string {
	return OIDCName
}

func (o *OIDC) AuthCodeURL(state string) string {
	return o.oauth2Config.AuthCodeURL(state)
}

func (o *OIDC) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := o.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDC Exchange] token exchange failed")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("[OIDC Exchange] no id_token in token response")
	}

	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDC Exchange] ID token verification failed")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[OIDC Exchange] failed to extract claims")
	}
	if claims.Email == "" {
		return nil, ErrProfileIncomplete
	}
	// Accounts are matched by email; only an issuer-verified address may claim one
	if !claims.EmailVerified {
		return nil, ErrEmailUnverified
	}

	first, last := claims.GivenName, claims.FamilyName
	if first == "" && last == "" && claims.Name != "" {
		first, last, _ = strings.Cut(claims.Name, " ")
	}

	return &Profile{
		Subject:   idToken.Subject,
		Email:     claims.Email,
		FirstName: first,
		LastName:  last,
	}, nil
}
