package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// MockAccountingNotifier is a mock implementation of port.AccountingNotifier.
type MockAccountingNotifier struct {
	mock.Mock
}

func (m *MockAccountingNotifier) NotifyAccounting(ctx context.Context, cred domain.Credential, notice domain.AccountingNotice) error {
	args := m.Called(ctx, cred, notice)
	return args.Error(0)
}

// MockPipelineTrigger is a mock implementation of port.PipelineTrigger.
type MockPipelineTrigger struct {
	mock.Mock
}

func (m *MockPipelineTrigger) Trigger(ctx context.Context, event port.PipelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
