package noop

import (
	"context"

	"go.uber.org/zap"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

type noopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates an AccountingNotifier that only logs the notice.
func NewNoopNotifier(logger *zap.Logger) port.AccountingNotifier {
	return &noopNotifier{logger: logger}
}

func (n *noopNotifier) NotifyAccounting(_ context.Context, _ domain.Credential, notice domain.AccountingNotice) error {
	n.logger.Info("[NOOP EMAIL] accounting notice",
		zap.String("file", notice.FileName),
		zap.String("uploaded_by", notice.UploadedBy),
		zap.Strings("errors", notice.Errors),
	)
	return nil
}
