package port

import (
	"context"
	"net/http"

	"salesintake/internal/domain"
)

// LoginResult is what a successful credential login yields.
type LoginResult struct {
	Credential domain.Credential
	Principal  *domain.Principal
	// Cookies are the Set-Cookie values the backend issued, relayed to the browser.
	Cookies []*http.Cookie
}

// IdentityGateway is the session/identity boundary of the backend.
type IdentityGateway interface {
	// Me returns the principal for cred, or domain.ErrUnauthenticated.
	Me(ctx context.Context, cred domain.Credential) (*domain.Principal, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Logout returns the redirect target suggested by the backend, if any.
	Logout(ctx context.Context, cred domain.Credential) (string, error)
	SSOLoginURL() string
}
