// Package guard decides whether a session may reach a protected route.
package guard

import (
	"salesintake/internal/domain"
)

// Requirement is what a route demands of the caller.
type Requirement struct {
	RequireInternal bool
	// AllowedRoles, when non-empty, restricts access to these roles
	// (compared case-insensitively).
	AllowedRoles []string
}

// Decide evaluates state against req. It is pure: the same inputs always
// yield the same decision.
func Decide(state domain.SessionState, req Requirement) domain.Decision {
	if state.Status == domain.SessionUnknown {
		return domain.DecisionPending
	}
	p := state.Principal
	if state.Status != domain.SessionAuthenticated || p == nil {
		return domain.DecisionRedirectLogin
	}
	if req.RequireInternal && !p.IsInternal() {
		return domain.DecisionRedirectUnauthorized
	}
	if len(req.AllowedRoles) > 0 && !p.HasRole(req.AllowedRoles...) {
		return domain.DecisionRedirectUnauthorized
	}
	return domain.DecisionAllow
}

// Redirect targets for denied decisions.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// RedirectTarget returns where a denied navigation should go, or "".
func RedirectTarget(d domain.Decision) string {
	switch d {
	case domain.DecisionRedirectLogin:
		return LoginPath
	case domain.DecisionRedirectUnauthorized:
		return UnauthorizedPath
	default:
		return ""
	}
}
