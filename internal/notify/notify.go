// Package notify delivers accounting notices and pipeline triggers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/notify/noop"
	"salesintake/internal/notify/ses"
	"salesintake/internal/port"
)

// Notify providers.
const (
	ProviderNoop = "noop"
	ProviderSES  = "ses"
)

// Multi fans a notice out to every notifier. All notifiers are attempted;
// the joined error reports the ones that failed.
type Multi []port.AccountingNotifier

func (m Multi) NotifyAccounting(ctx context.Context, cred domain.Credential, notice domain.AccountingNotice) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyAccounting(ctx, cred, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the accounting notifier: the backend endpoint plus the email
// channel selected by cfg.Provider.
func New(cfg *config.NotifyConfig, backend port.AccountingNotifier, logger *zap.Logger) (port.AccountingNotifier, error) {
	var email port.AccountingNotifier
	switch cfg.Provider {
	case ProviderSES:
		n, err := ses.NewSESNotifier(cfg)
		if err != nil {
			return nil, fmt.Errorf("notify.New: %w", err)
		}
		email = n
	case ProviderNoop, "":
		email = noop.NewNoopNotifier(logger)
	default:
		return nil, fmt.Errorf("notify.New: unknown provider %q", cfg.Provider)
	}
	if backend == nil {
		return email, nil
	}
	return Multi{backend, email}, nil
}
