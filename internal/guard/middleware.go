package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/middleware"
	"salesintake/internal/session"
)

// Middleware resolves the caller's session on every request and enforces req.
// Denials carry the redirect target the client should navigate to.
func Middleware(resolver session.Resolver, authCfg config.AuthConfig, req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := session.CredentialFromRequest(c.Request, authCfg)
		st := resolver.Resolve(c.Request.Context(), cred)

		// The caller went away while we were resolving; nobody is left to redirect.
		if c.Request.Context().Err() != nil {
			c.Abort()
			return
		}

		d := Decide(st, req)
		if d == domain.DecisionAllow {
			middleware.SetSession(c, st.Principal, cred)
			c.Next()
			return
		}
		abortDenied(c, d)
	}
}

// Require enforces req against the principal an outer Middleware already
// resolved.
func Require(req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := middleware.GetPrincipal(c)
		st := domain.Authenticated(p)
		if err != nil {
			st = domain.Unauthenticated()
		}
		d := Decide(st, req)
		if d == domain.DecisionAllow {
			c.Next()
			return
		}
		abortDenied(c, d)
	}
}

func abortDenied(c *gin.Context, d domain.Decision) {
	status, code, msg := http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	if d == domain.DecisionRedirectUnauthorized {
		status, code, msg = http.StatusForbidden, "FORBIDDEN", "insufficient permissions"
	}
	redirect := RedirectTarget(d)
	if redirect == "" {
		redirect = LoginPath
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success":  false,
		"error":    gin.H{"code": code, "message": msg},
		"redirect": redirect,
	})
}
