package middleware

import (
	"github.com/gin-gonic/gin"

	"salesintake/internal/domain"
)

const (
	ContextKeyPrincipal  = "principal"
	ContextKeyCredential = "credential"
	ContextKeyRole       = "role"
)

// SetSession injects the resolved principal and the credential it was
// resolved from into the Gin context.
func SetSession(c *gin.Context, p *domain.Principal, cred domain.Credential) {
	c.Set(ContextKeyPrincipal, p)
	c.Set(ContextKeyCredential, cred)
	if p != nil {
		c.Set(ContextKeyRole, p.Role)
	}
}

// GetPrincipal extracts the principal from the Gin context.
func GetPrincipal(c *gin.Context) (*domain.Principal, error) {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil, domain.ErrUnauthenticated
	}
	p, ok := val.(*domain.Principal)
	if !ok || p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// GetCredential extracts the caller's credential from the Gin context.
func GetCredential(c *gin.Context) domain.Credential {
	val, exists := c.Get(ContextKeyCredential)
	if !exists {
		return domain.Credential{}
	}
	cred, _ := val.(domain.Credential)
	return cred
}

// GetRole extracts the principal's role from the Gin context.
func GetRole(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return val.(string)
}
