package guard

import (
	"strings"

	"salesintake/internal/domain"
)

// Route is one navigable page of the portal.
type Route struct {
	Pattern     string
	Public      bool
	Requirement Requirement
	// RedirectTo, when set, sends every visitor elsewhere.
	RedirectTo string
}

// Routes is the portal's page table. Patterns use ":name" for parameters.
var Routes = []Route{
	{Pattern: "/", Public: true, RedirectTo: "/upload"},
	{Pattern: "/upload"},
	{Pattern: "/template"},
	{Pattern: "/UserAuditLog"},
	{Pattern: "/reports", Requirement: Requirement{RequireInternal: true}},
	{Pattern: "/ManageUsers", Requirement: Requirement{RequireInternal: true}},
	{Pattern: "/reports/:reportNumber/audit-log", Requirement: Requirement{RequireInternal: true}},
	{Pattern: "/ssp/reports", Requirement: Requirement{RequireInternal: true}},
	{Pattern: "/reports/:reportNumber"},
	{Pattern: "/unauthorized", Public: true},
	{Pattern: "/login", Public: true},
	{Pattern: "/logout", Public: true},
}

// Lookup finds the route matching path. Segments compare case-insensitively
// and trailing slashes are ignored.
func Lookup(path string) (Route, bool) {
	segs := split(path)
	for _, r := range Routes {
		if match(split(r.Pattern), segs) {
			return r, true
		}
	}
	return Route{}, false
}

// RouteDecision is the outcome of evaluating a navigation.
type RouteDecision struct {
	Path     string          `json:"path"`
	Known    bool            `json:"known"`
	Decision domain.Decision `json:"decision"`
	Redirect string          `json:"redirect,omitempty"`
}

// Evaluate decides a navigation to path. Unknown paths are public (they
// render the not-found page).
func Evaluate(state domain.SessionState, path string) RouteDecision {
	out := RouteDecision{Path: path}
	r, ok := Lookup(path)
	if !ok {
		out.Decision = domain.DecisionAllow
		return out
	}
	out.Known = true
	if r.Public {
		out.Decision = domain.DecisionAllow
		out.Redirect = r.RedirectTo
		return out
	}
	out.Decision = Decide(state, r.Requirement)
	out.Redirect = RedirectTarget(out.Decision)
	return out
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func match(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if !strings.EqualFold(p, segs[i]) {
			return false
		}
	}
	return true
}
