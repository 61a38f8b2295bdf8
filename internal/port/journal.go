package port

import (
	"context"

	"github.com/google/uuid"

	"salesintake/internal/domain"
)

// UploadJournal records blobs between transfer and registration.
type UploadJournal interface {
	RecordStored(ctx context.Context, entry *domain.JournalEntry) error
	MarkRegistered(ctx context.Context, id uuid.UUID) error
	MarkOrphaned(ctx context.Context, id uuid.UUID, reason string) error
	ListOrphaned(ctx context.Context, offset, limit int) ([]domain.JournalEntry, int, error)
}
