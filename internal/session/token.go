package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
)

// Claims are the identity-provider token claims the portal understands.
type Claims struct {
	jwt.RegisteredClaims
	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Email             string   `json:"email,omitempty"`
	ObjectID          string   `json:"oid,omitempty"`
	TenantID          string   `json:"tid,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	AppRoles          []string `json:"appRoles,omitempty"`
	Role              string   `json:"role,omitempty"`
	UserType          string   `json:"user_type,omitempty"`
	BPCode            string   `json:"bp_code,omitempty"`
}

type tokenResolver struct {
	cfg    config.TokenConfig
	logger *zap.Logger
}

// NewTokenResolver verifies bearer tokens locally.
func NewTokenResolver(cfg config.TokenConfig, logger *zap.Logger) Resolver {
	return &tokenResolver{cfg: cfg, logger: logger}
}

func (r *tokenResolver) Resolve(_ context.Context, cred domain.Credential) domain.SessionState {
	if cred.Empty() || cred.Kind != domain.CredentialBearer {
		return domain.Unauthenticated()
	}
	claims, err := r.parse(cred.Value)
	if err != nil {
		r.logger.Debug("session.Resolve: token rejected", zap.Error(err))
		return domain.Rejected()
	}
	return domain.Authenticated(r.principal(claims))
}

func (r *tokenResolver) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if r.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.cfg.Issuer))
	}
	if r.cfg.ClientID != "" {
		opts = append(opts, jwt.WithAudience(r.cfg.ClientID))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(r.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthenticated
	}
	if r.cfg.TenantID != "" && claims.TenantID != r.cfg.TenantID {
		return nil, fmt.Errorf("tenant %q not accepted: %w", claims.TenantID, domain.ErrUnauthenticated)
	}
	return claims, nil
}

func (r *tokenResolver) principal(c *Claims) *domain.Principal {
	roles := make([]string, 0, len(c.Roles)+len(c.AppRoles)+1)
	roles = append(roles, c.Roles...)
	roles = append(roles, c.AppRoles...)
	if c.Role != "" && !contains(roles, c.Role) {
		roles = append(roles, c.Role)
	}

	userType := c.UserType
	if userType == "" {
		userType = r.cfg.DefaultUserType
	}

	p := &domain.Principal{
		ID:          firstNonEmpty(c.ObjectID, c.Subject, c.PreferredUsername, c.Email),
		DisplayName: firstNonEmpty(c.Name, c.PreferredUsername, c.Email, "User"),
		Username:    c.PreferredUsername,
		Email:       c.Email,
		UserType:    domain.ParseUserType(userType),
		Groups:      roles,
		BPCode:      strings.TrimSpace(c.BPCode),
	}
	if len(roles) > 0 {
		p.Role = roles[0]
	}
	return p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
