// Package identity handles the hosted-login redirect flow: building
// login/logout URLs, consuming the artifact the provider hands back, and
// keeping session tokens on disk. Token semantics stay with the provider;
// this package never validates signatures.
package identity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
)

// Scope requested from the hosted login page.
const loginScope = "email openid phone profile"

// Artifact is what the provider returns on redirect-back: either an
// authorization code (query parameter) or tokens (URL fragment). Exactly
// one of the two shapes is populated.
type Artifact struct {
	Code        string
	AccessToken string
	IDToken     string
}

// Empty reports whether the redirect carried nothing usable.
func (a Artifact) Empty() bool {
	return a.Code == "" && a.AccessToken == "" && a.IDToken == ""
}

// LoginURL builds the hosted-UI login URL.
func LoginURL(cfg config.IdentityConfig) (string, error) {
	u, err := url.Parse(cfg.Domain + "/login")
	if err != nil {
		return "", fmt.Errorf("parse identity domain: %w", err)
	}
	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", loginScope)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LogoutURL builds the hosted-UI sign-out URL. Remote HttpOnly artifacts
// are outside this process's authority; redirecting through the provider
// is the only way to clear them.
func LogoutURL(cfg config.IdentityConfig) (string, error) {
	u, err := url.Parse(cfg.Domain + "/logout")
	if err != nil {
		return "", fmt.Errorf("parse identity domain: %w", err)
	}
	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	q.Set("logout_uri", cfg.RedirectURI)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConsumeRedirect extracts the login artifact from a redirect-back URL.
// The provider returns either ?code=... in the query or
// #access_token=...&id_token=... in the fragment. The artifact is meant
// to be consumed once; callers discard the URL afterwards.
func ConsumeRedirect(rawURL string) (Artifact, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Artifact{}, fmt.Errorf("parse redirect url: %w", err)
	}

	var a Artifact
	a.Code = u.Query().Get("code")

	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err == nil {
			a.AccessToken = frag.Get("access_token")
			a.IDToken = frag.Get("id_token")
		}
	}

	if a.Empty() {
		return Artifact{}, fmt.Errorf("redirect url carries no code or token")
	}
	return a, nil
}
