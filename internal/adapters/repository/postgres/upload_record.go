package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/google/uuid"
)

type sqlUploadRecordRepository struct {
	db SQLQuerier
}

// NewSQLUploadRecordRepository creates sqlUploadRecordRepository that implements port.UploadRecordRepository
func NewSQLUploadRecordRepository(db SQLQuerier) port.UploadRecordRepository {
	return &sqlUploadRecordRepository{
		db: db,
	}
}

// Create inserts a pending record for a completed upload. The upload id is the
// primary key, so a replayed completion cannot create a second record.
func (s *sqlUploadRecordRepository) Create(ctx context.Context, record domain.UploadRecord) error {
	query := `INSERT INTO upload_records (upload_id, file_name, file_size, content_type, form_id, submission_id, field_key, user_id, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              ON CONFLICT (upload_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		record.UploadID,
		record.FileName,
		record.FileSize,
		record.ContentType,
		record.FormID,
		record.SubmissionID,
		record.FieldKey,
		record.UserID,
		record.Status,
	)
	if err != nil {
		return fmt.Errorf("error inserting upload record: %w", err)
	}
	return nil
}

// MarkStored records where the storage worker put the file.
func (s *sqlUploadRecordRepository) MarkStored(ctx context.Context, uploadID uuid.UUID, storageKey, storageURL string) error {
	query := `UPDATE upload_records
              SET status = $1, storage_key = $2, storage_url = $3, updated_at = now()
              WHERE upload_id = $4`

	result, err := s.db.ExecContext(ctx, query, domain.UploadRecordStatusStored, storageKey, storageURL, uploadID)
	if err != nil {
		return fmt.Errorf("error updating upload record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// MarkFailed flags the record after the storage pipeline gave up.
func (s *sqlUploadRecordRepository) MarkFailed(ctx context.Context, uploadID uuid.UUID) error {
	query := `UPDATE upload_records
              SET status = $1, updated_at = now()
              WHERE upload_id = $2`

	result, err := s.db.ExecContext(ctx, query, domain.UploadRecordStatusFailed, uploadID)
	if err != nil {
		return fmt.Errorf("error updating upload record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// FindByUploadID finds by upload id
func (s *sqlUploadRecordRepository) FindByUploadID(ctx context.Context, uploadID uuid.UUID) (*domain.UploadRecord, error) {
	query := `SELECT upload_id, file_name, file_size, content_type, form_id, submission_id, field_key, user_id,
                     status, storage_key, storage_url, created_at, updated_at
              FROM upload_records
              WHERE upload_id = $1`

	var dbRecord dbUploadRecord
	err := s.db.QueryRowContext(ctx, query, uploadID).Scan(
		&dbRecord.UploadID,
		&dbRecord.FileName,
		&dbRecord.FileSize,
		&dbRecord.ContentType,
		&dbRecord.FormID,
		&dbRecord.SubmissionID,
		&dbRecord.FieldKey,
		&dbRecord.UserID,
		&dbRecord.Status,
		&dbRecord.StorageKey,
		&dbRecord.StorageURL,
		&dbRecord.CreatedAt,
		&dbRecord.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return dbRecord.ToDomain(), nil
}

// dbUploadRecord represents an upload record in DB
type dbUploadRecord struct {
	UploadID     uuid.UUID      `db:"upload_id"`
	FileName     string         `db:"file_name"`
	FileSize     int64          `db:"file_size"`
	ContentType  string         `db:"content_type"`
	FormID       string         `db:"form_id"`
	SubmissionID string         `db:"submission_id"`
	FieldKey     string         `db:"field_key"`
	UserID       string         `db:"user_id"`
	Status       string         `db:"status"`
	StorageKey   sql.NullString `db:"storage_key"`
	StorageURL   sql.NullString `db:"storage_url"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ToDomain converts to domain.UploadRecord
func (r *dbUploadRecord) ToDomain() *domain.UploadRecord {
	return &domain.UploadRecord{
		UploadID:     r.UploadID,
		FileName:     r.FileName,
		FileSize:     r.FileSize,
		ContentType:  r.ContentType,
		FormID:       r.FormID,
		SubmissionID: r.SubmissionID,
		FieldKey:     r.FieldKey,
		UserID:       r.UserID,
		Status:       domain.UploadRecordStatus(r.Status),
		StorageKey:   r.StorageKey.String,
		StorageURL:   r.StorageURL.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
