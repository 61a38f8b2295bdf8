package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// Resolver determines who, if anyone, is behind a credential. Resolve never
// fails: every ambiguity resolves to the unauthenticated state.
type Resolver interface {
	Resolve(ctx context.Context, cred domain.Credential) domain.SessionState
}

// NewResolver builds the resolver selected by cfg.Mode, bounded by
// cfg.SessionTimeout.
func NewResolver(cfg config.AuthConfig, gateway port.IdentityGateway, logger *zap.Logger) (Resolver, error) {
	var r Resolver
	switch cfg.Mode {
	case config.AuthModeCookie:
		r = NewGatewayResolver(gateway, logger)
	case config.AuthModeToken:
		r = NewTokenResolver(cfg.Token, logger)
	default:
		return nil, fmt.Errorf("session.NewResolver: unknown auth mode %q", cfg.Mode)
	}
	return WithTimeout(r, cfg.SessionTimeout), nil
}

type gatewayResolver struct {
	gateway port.IdentityGateway
	logger  *zap.Logger
}

// NewGatewayResolver resolves sessions by asking the backend who the
// credential belongs to.
func NewGatewayResolver(gateway port.IdentityGateway, logger *zap.Logger) Resolver {
	return &gatewayResolver{gateway: gateway, logger: logger}
}

func (r *gatewayResolver) Resolve(ctx context.Context, cred domain.Credential) domain.SessionState {
	if cred.Empty() {
		return domain.Unauthenticated()
	}
	p, err := r.gateway.Me(ctx, cred)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Rejected()
		}
		r.logger.Warn("session.Resolve: identity check failed", zap.Error(err))
		return domain.Unauthenticated()
	}
	if p == nil {
		return domain.Unauthenticated()
	}
	return domain.Authenticated(p)
}

type timeoutResolver struct {
	next    Resolver
	timeout time.Duration
}

// WithTimeout bounds every resolution by d. A check that has not finished
// in time resolves to unauthenticated.
func WithTimeout(next Resolver, d time.Duration) Resolver {
	if d <= 0 {
		return next
	}
	return &timeoutResolver{next: next, timeout: d}
}

func (r *timeoutResolver) Resolve(ctx context.Context, cred domain.Credential) domain.SessionState {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan domain.SessionState, 1)
	go func() { done <- r.next.Resolve(ctx, cred) }()

	select {
	case st := <-done:
		return st
	case <-ctx.Done():
		return domain.Unauthenticated()
	}
}
