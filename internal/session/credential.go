package session

import (
	"net/http"
	"strings"

	"salesintake/internal/config"
	"salesintake/internal/domain"
)

// CredentialFromRequest extracts the caller's credential for the configured
// auth mode. A bearer header is honored in both modes.
func CredentialFromRequest(r *http.Request, cfg config.AuthConfig) domain.Credential {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != "" {
			return domain.Credential{Kind: domain.CredentialBearer, Value: strings.TrimSpace(parts[1])}
		}
	}
	if cfg.Mode == config.AuthModeCookie {
		if ck, err := r.Cookie(cfg.SessionCookie); err == nil && ck.Value != "" {
			return domain.Credential{Kind: domain.CredentialCookie, Name: ck.Name, Value: ck.Value}
		}
	}
	return domain.Credential{}
}
