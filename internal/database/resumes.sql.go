package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createResume = `-- name: CreateResume :one
INSERT INTO resumes (
id, original_filename, mime, size_bytes, storage_provider, object_key, storage_url, upload_status, extracted_text)
VALUES ( $1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, original_filename, mime, size_bytes, storage_provider, object_key, storage_url, upload_status, extracted_text, created_at, updated_at
`

type CreateResumeParams struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	ExtractedText    sql.NullString
}

func (q *Queries) CreateResume(ctx context.Context, arg CreateResumeParams) (Resume, error) {
	row := q.db.QueryRowContext(ctx, createResume,
		arg.ID,
		arg.OriginalFilename,
		arg.Mime,
		arg.SizeBytes,
		arg.StorageProvider,
		arg.ObjectKey,
		arg.StorageUrl,
		arg.UploadStatus,
		arg.ExtractedText,
	)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.OriginalFilename,
		&i.Mime,
		&i.SizeBytes,
		&i.StorageProvider,
		&i.ObjectKey,
		&i.StorageUrl,
		&i.UploadStatus,
		&i.ExtractedText,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getResume = `-- name: GetResume :one
SELECT id, original_filename, mime, size_bytes, storage_provider, object_key, storage_url, upload_status, extracted_text, created_at, updated_at FROM resumes WHERE id=$1
`

func (q *Queries) GetResume(ctx context.Context, id uuid.UUID) (Resume, error) {
	row := q.db.QueryRowContext(ctx, getResume, id)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.OriginalFilename,
		&i.Mime,
		&i.SizeBytes,
		&i.StorageProvider,
		&i.ObjectKey,
		&i.StorageUrl,
		&i.UploadStatus,
		&i.ExtractedText,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateResumeText = `-- name: UpdateResumeText :exec
UPDATE resumes
SET extracted_text=$1, upload_status=$2, updated_at=CURRENT_TIMESTAMP
WHERE id=$3
`

type UpdateResumeTextParams struct {
	ExtractedText sql.NullString
	UploadStatus  string
	ID            uuid.UUID
}

func (q *Queries) UpdateResumeText(ctx context.Context, arg UpdateResumeTextParams) error {
	_, err := q.db.ExecContext(ctx, updateResumeText, arg.ExtractedText, arg.UploadStatus, arg.ID)
	return err
}

const updateResumeStatus = `-- name: UpdateResumeStatus :exec
UPDATE resumes
SET upload_status=$1, updated_at=CURRENT_TIMESTAMP
WHERE id=$2
`

type UpdateResumeStatusParams struct {
	UploadStatus string
	ID           uuid.UUID
}

func (q *Queries) UpdateResumeStatus(ctx context.Context, arg UpdateResumeStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateResumeStatus, arg.UploadStatus, arg.ID)
	return err
}
