package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muhammadolammi/interviewpro/internal/database"
)

func init() {
	gin.SetMode(gin.TestMode)
	retryBaseDelay = 0
}

// --- Store ---

type fakeStore struct {
	mu        sync.Mutex
	resumes   map[uuid.UUID]database.Resume
	sessions  map[uuid.UUID]string
	messages  []database.CreateInterviewMessageParams
	feedback  map[uuid.UUID][]byte
	statuses   []string
	failWrite  error
	failStatus error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resumes:  make(map[uuid.UUID]database.Resume),
		sessions: make(map[uuid.UUID]string),
		feedback: make(map[uuid.UUID][]byte),
	}
}

func (s *fakeStore) CreateResume(_ context.Context, arg database.CreateResumeParams) (database.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return database.Resume{}, s.failWrite
	}
	r := database.Resume{
		ID:               arg.ID,
		OriginalFilename: arg.OriginalFilename,
		Mime:             arg.Mime,
		SizeBytes:        arg.SizeBytes,
		StorageProvider:  arg.StorageProvider,
		ObjectKey:        arg.ObjectKey,
		StorageUrl:       arg.StorageUrl,
		UploadStatus:     arg.UploadStatus,
		ExtractedText:    arg.ExtractedText,
	}
	s.resumes[arg.ID] = r
	return r, nil
}

func (s *fakeStore) GetResume(_ context.Context, id uuid.UUID) (database.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok {
		return database.Resume{}, sql.ErrNoRows
	}
	return r, nil
}

func (s *fakeStore) UpdateResumeText(_ context.Context, arg database.UpdateResumeTextParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	r := s.resumes[arg.ID]
	r.ExtractedText = arg.ExtractedText
	r.UploadStatus = arg.UploadStatus
	s.resumes[arg.ID] = r
	s.statuses = append(s.statuses, arg.UploadStatus)
	return nil
}

func (s *fakeStore) UpdateResumeStatus(_ context.Context, arg database.UpdateResumeStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus != nil {
		return s.failStatus
	}
	r := s.resumes[arg.ID]
	r.UploadStatus = arg.UploadStatus
	s.resumes[arg.ID] = r
	s.statuses = append(s.statuses, arg.UploadStatus)
	return nil
}

func (s *fakeStore) CreateInterviewSession(_ context.Context, arg database.CreateInterviewSessionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[arg.ID] = arg.Status
	return nil
}

func (s *fakeStore) UpdateInterviewSessionStatus(_ context.Context, arg database.UpdateInterviewSessionStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[arg.ID] = arg.Status
	return nil
}

func (s *fakeStore) CreateInterviewMessage(_ context.Context, arg database.CreateInterviewMessageParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, arg)
	return nil
}

func (s *fakeStore) CreateOrUpdateInterviewFeedback(_ context.Context, arg database.CreateOrUpdateInterviewFeedbackParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[arg.SessionID] = arg.Feedback
	return nil
}

// --- Object storage ---

type fakeStorage struct {
	mu           sync.Mutex
	objects      map[string][]byte
	downloadErrs int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Provider() string { return "memory" }

func (f *fakeStorage) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

func (f *fakeStorage) Download(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErrs > 0 {
		f.downloadErrs--
		return nil, errors.New("connection reset")
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return data, nil
}

// --- Publisher ---

type fakePublisher struct {
	mu      sync.Mutex
	jobs    []ResumeJob
	updates []ResumeUpdate
}

func (p *fakePublisher) PublishResumeJob(job ResumeJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) PublishResumeUpdate(update ResumeUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)
	return nil
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, u := range p.updates {
		out = append(out, u.Status)
	}
	return out
}

// --- Interviewer ---

type fakeInterviewer struct {
	mu       sync.Mutex
	active   map[uuid.UUID][]string
	feedback string
	err      error
}

func newFakeInterviewer() *fakeInterviewer {
	return &fakeInterviewer{active: make(map[uuid.UUID][]string)}
}

func (f *fakeInterviewer) Start(_ context.Context, id uuid.UUID, resumeText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.active[id] = []string{resumeText}
	return "Tell me about a project you are proud of.", nil
}

func (f *fakeInterviewer) Reply(_ context.Context, id uuid.UUID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	turns, ok := f.active[id]
	if !ok {
		return "", ErrUnknownSession
	}
	f.active[id] = append(turns, content)
	return fmt.Sprintf("Question %d.", len(turns)+1), nil
}

func (f *fakeInterviewer) Feedback(_ context.Context, id uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[id]; !ok {
		return "", ErrUnknownSession
	}
	return f.feedback, nil
}

func (f *fakeInterviewer) End(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[id]; !ok {
		return ErrUnknownSession
	}
	delete(f.active, id)
	return nil
}

// --- Speech ---

type fakeSpeech struct {
	mu     sync.Mutex
	queued []string
	err    error
}

func (f *fakeSpeech) Enqueue(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, text)
	return nil
}

// --- Requests ---

// multipartBody builds a form with one "file" part. An empty contentType leaves
// the part header to multipart's octet-stream default.
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func doUpload(t *testing.T, router http.Handler, path, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var errTest = errors.New("test failure")

func newRequest(t *testing.T, path string, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
