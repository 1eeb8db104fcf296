package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/interviewpro/internal/database"
	"github.com/muhammadolammi/interviewpro/internal/extract"
)

// Store is the persistence the server and workers need; *database.Queries satisfies it.
type Store interface {
	CreateResume(ctx context.Context, arg database.CreateResumeParams) (database.Resume, error)
	GetResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	UpdateResumeText(ctx context.Context, arg database.UpdateResumeTextParams) error
	UpdateResumeStatus(ctx context.Context, arg database.UpdateResumeStatusParams) error
	CreateInterviewSession(ctx context.Context, arg database.CreateInterviewSessionParams) error
	UpdateInterviewSessionStatus(ctx context.Context, arg database.UpdateInterviewSessionStatusParams) error
	CreateInterviewMessage(ctx context.Context, arg database.CreateInterviewMessageParams) error
	CreateOrUpdateInterviewFeedback(ctx context.Context, arg database.CreateOrUpdateInterviewFeedbackParams) error
}

// ObjectStore keeps the original uploaded files.
type ObjectStore interface {
	Upload(ctx context.Context, key, mime string, data []byte) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Provider() string
}

// Publisher sends resume jobs and status updates to the broker.
type Publisher interface {
	PublishResumeJob(job ResumeJob) error
	PublishResumeUpdate(update ResumeUpdate) error
}

// Interviewer runs one LLM interview conversation per session id.
type Interviewer interface {
	Start(ctx context.Context, sessionID uuid.UUID, resumeText string) (string, error)
	Reply(ctx context.Context, sessionID uuid.UUID, content string) (string, error)
	Feedback(ctx context.Context, sessionID uuid.UUID) (string, error)
	End(ctx context.Context, sessionID uuid.UUID) error
}

// Enqueuer accepts text to be spoken.
type Enqueuer interface {
	Enqueue(text string) error
}

type ServerConfig struct {
	DB             Store
	Storage        ObjectStore
	Publisher      Publisher
	Extractor      extract.Extractor
	Interviewer    Interviewer
	Speech         Enqueuer
	MaxUploadBytes int64
	RABBITMQUrl    string
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"

	StatusActive = "active"
)

const (
	RoleCandidate   = "user"
	RoleInterviewer = "assistant"
)

// ResumeJob is the body of a message on the resumes queue.
type ResumeJob struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	ObjectKey string    `json:"object_key"`
	Mime      string    `json:"mime"`
	Filename  string    `json:"filename"`
}

type ResumeUpdate struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type InterviewFeedback struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
}

type startInterviewRequest struct {
	ResumeText string `json:"resume_text"`
	ResumeID   string `json:"resume_id"`
}

type interviewMessageRequest struct {
	Content string `json:"content"`
}

type speakRequest struct {
	Text string `json:"text"`
}

type resumeResponse struct {
	ID       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Mime     string    `json:"mime"`
	Status   string    `json:"status"`
	Text     string    `json:"text"`
}
