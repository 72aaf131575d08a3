package config

type SocialConfig interface {
	GetFacebookClientID() string
	GetFacebookClientSecret() string
	GetFacebookRedirectURL() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
}

type Social struct {
	s settings
}

var _ SocialConfig = Social{}

func (so Social) GetFacebookClientID() string     { return so.s.Social.Facebook.ClientID }
func (so Social) GetFacebookClientSecret() string { return so.s.Social.Facebook.ClientSecret }
func (so Social) GetFacebookRedirectURL() string  { return so.s.Social.Facebook.RedirectURL }
func (so Social) GetOIDCIssuer() string           { return so.s.Social.OIDC.Issuer }
func (so Social) GetOIDCClientID() string         { return so.s.Social.OIDC.ClientID }
func (so Social) GetOIDCClientSecret() string     { return so.s.Social.OIDC.ClientSecret }
func (so Social) GetOIDCRedirectURL() string      { return so.s.Social.OIDC.RedirectURL }
