package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

type uploadJournalRepo struct {
	db *sqlx.DB
}

// NewUploadJournalRepo creates a new PostgreSQL-backed UploadJournal.
func NewUploadJournalRepo(db *sqlx.DB) port.UploadJournal {
	return &uploadJournalRepo{db: db}
}

func (r *uploadJournalRepo) RecordStored(ctx context.Context, entry *domain.JournalEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO upload_journal (id, blob_key, filename, uploader_id, status, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.BlobKey, entry.Filename, entry.UploaderID, domain.JournalStatusStored, "",
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("uploadJournalRepo.RecordStored: %w", err)
	}
	return nil
}

func (r *uploadJournalRepo) MarkRegistered(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, "uploadJournalRepo.MarkRegistered", id, domain.JournalStatusRegistered, "")
}

func (r *uploadJournalRepo) MarkOrphaned(ctx context.Context, id uuid.UUID, reason string) error {
	return r.setStatus(ctx, "uploadJournalRepo.MarkOrphaned", id, domain.JournalStatusOrphaned, reason)
}

func (r *uploadJournalRepo) setStatus(ctx context.Context, op string, id uuid.UUID, status domain.JournalStatus, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE upload_journal SET status = $1, error = $2, updated_at = NOW() WHERE id = $3`,
		status, reason, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *uploadJournalRepo) ListOrphaned(ctx context.Context, offset, limit int) ([]domain.JournalEntry, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM upload_journal WHERE status = $1`, domain.JournalStatusOrphaned)
	if err != nil {
		return nil, 0, fmt.Errorf("uploadJournalRepo.ListOrphaned count: %w", err)
	}

	var entries []domain.JournalEntry
	err = r.db.SelectContext(ctx, &entries,
		`SELECT id, blob_key, filename, uploader_id, status, error, created_at, updated_at
		 FROM upload_journal
		 WHERE status = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		domain.JournalStatusOrphaned, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("uploadJournalRepo.ListOrphaned: %w", err)
	}
	return entries, total, nil
}
