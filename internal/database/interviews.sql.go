package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createInterviewSession = `-- name: CreateInterviewSession :exec
INSERT INTO interview_sessions (id, resume_id, status)
VALUES ($1, $2, $3)
`

type CreateInterviewSessionParams struct {
	ID       uuid.UUID
	ResumeID uuid.NullUUID
	Status   string
}

func (q *Queries) CreateInterviewSession(ctx context.Context, arg CreateInterviewSessionParams) error {
	_, err := q.db.ExecContext(ctx, createInterviewSession, arg.ID, arg.ResumeID, arg.Status)
	return err
}

const updateInterviewSessionStatus = `-- name: UpdateInterviewSessionStatus :exec
UPDATE interview_sessions 
SET status=$1, updated_at=CURRENT_TIMESTAMP
WHERE id=$2
`

type UpdateInterviewSessionStatusParams struct {
	Status string
	ID     uuid.UUID
}

func (q *Queries) UpdateInterviewSessionStatus(ctx context.Context, arg UpdateInterviewSessionStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateInterviewSessionStatus, arg.Status, arg.ID)
	return err
}

const createInterviewMessage = `-- name: CreateInterviewMessage :exec
INSERT INTO interview_messages (id, session_id, role, content)
VALUES ($1, $2, $3, $4)
`

type CreateInterviewMessageParams struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      string
	Content   string
}

func (q *Queries) CreateInterviewMessage(ctx context.Context, arg CreateInterviewMessageParams) error {
	_, err := q.db.ExecContext(ctx, createInterviewMessage,
		arg.ID,
		arg.SessionID,
		arg.Role,
		arg.Content,
	)
	return err
}

const createOrUpdateInterviewFeedback = `-- name: CreateOrUpdateInterviewFeedback :exec
INSERT INTO interview_feedback (
feedback, session_id)
VALUES ( $1, $2)
ON CONFLICT (session_id)
DO UPDATE SET
    feedback = EXCLUDED.feedback,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateInterviewFeedbackParams struct {
	Feedback  json.RawMessage
	SessionID uuid.UUID
}

func (q *Queries) CreateOrUpdateInterviewFeedback(ctx context.Context, arg CreateOrUpdateInterviewFeedbackParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateInterviewFeedback, arg.Feedback, arg.SessionID)
	return err
}
