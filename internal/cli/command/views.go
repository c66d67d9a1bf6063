package command

import (
	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/pkg/token"
)

// messageView wraps a plain message for structured output.
type messageView struct {
	Message string `json:"message" yaml:"message"`
}

// userView is the printable form of a user profile.
type userView struct {
	ID           string `json:"id" yaml:"id"`
	Email        string `json:"email" yaml:"email"`
	Name         string `json:"name" yaml:"name"`
	Role         string `json:"role" yaml:"role"`
	Active       bool   `json:"active" yaml:"active"`
	Organization string `json:"organization" yaml:"organization"`
	OrgDomain    string `json:"organization_domain,omitempty" yaml:"organization_domain,omitempty" table:"organization_domain"`
}

func newUserView(u *domain.User, org *domain.Organization) userView {
	v := userView{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.DisplayName(),
		Role:   string(u.Role),
		Active: u.IsActive,
	}
	if org == nil {
		org = u.Organization
	}
	if org != nil {
		v.Organization = org.Name
		v.OrgDomain = org.Domain
	} else {
		v.Organization = u.OrganizationID
	}
	return v
}

// tokenView shows token fingerprints, never the tokens themselves.
type tokenView struct {
	AccessToken  string `json:"access_token_fp" yaml:"access_token_fp" table:"access_token"`
	RefreshToken string `json:"refresh_token_fp" yaml:"refresh_token_fp" table:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in" yaml:"expires_in"`
	Format       string `json:"format" yaml:"format"`
}

func newTokenView(t *domain.TokenSet) tokenView {
	if t == nil {
		return tokenView{}
	}
	return tokenView{
		AccessToken:  token.Fingerprint(t.AccessToken),
		RefreshToken: token.Fingerprint(t.RefreshToken),
		ExpiresIn:    t.ExpiresIn,
		Format:       tokenFormat(t.AccessToken),
	}
}

// statusView summarizes the local session.
type statusView struct {
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	Admin         bool       `json:"admin" yaml:"admin"`
	Server        string     `json:"server" yaml:"server"`
	User          *userView  `json:"user,omitempty" yaml:"user,omitempty"`
	Tokens        *tokenView `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
}

func newStatusView(s domain.SessionState, server string) statusView {
	v := statusView{
		Authenticated: s.IsAuthenticated,
		Admin:         s.IsAdmin,
		Server:        server,
		Error:         s.Error,
	}
	if s.User != nil {
		uv := newUserView(s.User, s.Organization)
		v.User = &uv
	}
	if s.Tokens != nil {
		tv := newTokenView(s.Tokens)
		v.Tokens = &tv
	}
	return v
}

// tokenFormat reports "jwt" or "opaque" for an access token.
func tokenFormat(access string) string {
	if token.LooksLikeJWT(access) {
		return "jwt"
	}
	return "opaque"
}
