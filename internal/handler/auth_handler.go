package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/disclosure"
	"salesintake/internal/domain"
	"salesintake/internal/guard"
	"salesintake/internal/port"
	"salesintake/internal/session"
)

// LoginInput is the credential login request.
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginOutput is returned after a successful login.
type LoginOutput struct {
	User  *domain.Principal `json:"user"`
	Token string            `json:"token,omitempty"`
}

// SessionOutput describes the caller's resolved session.
type SessionOutput struct {
	Status     domain.SessionStatus `json:"status"`
	User       *domain.Principal    `json:"user,omitempty"`
	Disclosure domain.Disclosure    `json:"disclosure"`
}

// AuthHandler handles login, logout and session endpoints.
type AuthHandler struct {
	identity port.IdentityGateway
	resolver session.Resolver
	policy   *disclosure.Policy
	authCfg  config.AuthConfig
	secure   bool
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secure marks relayed cookies Secure.
func NewAuthHandler(identity port.IdentityGateway, resolver session.Resolver, policy *disclosure.Policy, authCfg config.AuthConfig, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, resolver: resolver, policy: policy, authCfg: authCfg, secure: secure, logger: logger}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.identity.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		HandleError(c, err)
		return
	}

	out := LoginOutput{User: result.Principal}
	switch result.Credential.Kind {
	case domain.CredentialBearer:
		out.Token = result.Credential.Value
	default:
		h.setSessionCookie(c, result.Credential.Value, 0)
	}
	RespondOK(c, out)
}

// SSO handles GET /api/v1/auth/sso by sending the browser to the identity provider.
func (h *AuthHandler) SSO(c *gin.Context) {
	c.Redirect(http.StatusFound, h.identity.SSOLoginURL())
}

// Logout handles POST /api/v1/auth/logout. The local session is cleared even
// when the backend call fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	cred := session.CredentialFromRequest(c.Request, h.authCfg)
	redirect := guard.LoginPath
	if !cred.Empty() {
		target, err := h.identity.Logout(c.Request.Context(), cred)
		switch {
		case err != nil:
			h.logger.Warn("handler.Logout: backend logout failed", zap.Error(err))
		case target != "":
			redirect = target
		}
	}
	if h.authCfg.Mode == config.AuthModeCookie {
		h.setSessionCookie(c, "", -1)
	}
	RespondOK(c, gin.H{"redirect": redirect})
}

// Session handles GET /api/v1/session
func (h *AuthHandler) Session(c *gin.Context) {
	st := h.resolve(c)
	RespondOK(c, SessionOutput{
		Status:     st.Status,
		User:       st.Principal,
		Disclosure: h.policy.Compute(st.Principal),
	})
}

// Route handles GET /api/v1/session/route?path=...
func (h *AuthHandler) Route(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "path query parameter is required")
		return
	}
	RespondOK(c, guard.Evaluate(h.resolve(c), path))
}

func (h *AuthHandler) resolve(c *gin.Context) domain.SessionState {
	cred := session.CredentialFromRequest(c.Request, h.authCfg)
	return h.resolver.Resolve(c.Request.Context(), cred)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.authCfg.SessionCookie, value, maxAge, "/", "", h.secure, true)
}
