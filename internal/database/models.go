package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID               uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	ExtractedText    sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type InterviewSession struct {
	ID        uuid.UUID
	ResumeID  uuid.NullUUID
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InterviewMessage struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

type InterviewFeedback struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Feedback  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
