package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"salesintake/internal/domain"
)

// MockUploadJournal is a mock implementation of port.UploadJournal.
type MockUploadJournal struct {
	mock.Mock
}

func (m *MockUploadJournal) RecordStored(ctx context.Context, entry *domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockUploadJournal) MarkRegistered(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUploadJournal) MarkOrphaned(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockUploadJournal) ListOrphaned(ctx context.Context, offset, limit int) ([]domain.JournalEntry, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.JournalEntry), args.Int(1), args.Error(2)
}
