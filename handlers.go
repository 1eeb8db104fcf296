package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/muhammadolammi/interviewpro/internal/database"
	"github.com/muhammadolammi/interviewpro/internal/extract"
	"github.com/muhammadolammi/interviewpro/internal/speech"
)

func (cfg *ServerConfig) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/extract-text", cfg.handleExtractText)
	api.POST("/resumes", cfg.handleCreateResume)
	api.GET("/resumes/:id", cfg.handleGetResume)
	api.POST("/interviews", cfg.handleStartInterview)
	api.POST("/interviews/:id/messages", cfg.handleInterviewMessage)
	api.POST("/interviews/:id/feedback", cfg.handleInterviewFeedback)
	api.DELETE("/interviews/:id", cfg.handleEndInterview)
	api.POST("/speak", cfg.handleSpeak)

	return router
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

type upload struct {
	filename string
	mime     string
	data     []byte
}

// multipartOverhead is the room left for form boundaries and part headers on
// top of MaxUploadBytes.
const multipartOverhead = 64 << 10

// readFileField validates the multipart "file" field. On failure it writes the
// error response and returns false.
func (cfg *ServerConfig) readFileField(c *gin.Context) (upload, bool) {
	if cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file is larger than %d bytes", cfg.MaxUploadBytes))
			return upload{}, false
		}
		respondError(c, http.StatusBadRequest, "no file uploaded")
		return upload{}, false
	}
	if cfg.MaxUploadBytes > 0 && fh.Size > cfg.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file is larger than %d bytes", cfg.MaxUploadBytes))
		return upload{}, false
	}

	data, err := readUpload(fh)
	if err != nil {
		log.Printf("error reading upload %s: %v", fh.Filename, err)
		respondError(c, http.StatusInternalServerError, "failed to read uploaded file")
		return upload{}, false
	}
	if len(data) == 0 {
		respondError(c, http.StatusBadRequest, "uploaded file is empty")
		return upload{}, false
	}

	mime := extract.DetectMIME(fh.Header.Get("Content-Type"), data)
	if !extract.Supported(mime) {
		respondError(c, http.StatusBadRequest, "unsupported file type: "+mime)
		return upload{}, false
	}
	return upload{filename: fh.Filename, mime: mime, data: data}, true
}

func (cfg *ServerConfig) handleExtractText(c *gin.Context) {
	up, ok := cfg.readFileField(c)
	if !ok {
		return
	}
	log.Printf("Processing file: %s Size: %d", up.filename, len(up.data))

	text, err := extract.ForMIME(up.mime, up.data, cfg.Extractor)
	if err != nil {
		log.Printf("error in extract-text: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to extract text")
		return
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("⚠️ no text recovered from %s", up.filename)
	}

	cfg.recordExtraction(c.Request.Context(), up, text)

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// recordExtraction stores the upload and its text when storage is configured.
// Failures are logged; the caller already has its text.
func (cfg *ServerConfig) recordExtraction(ctx context.Context, up upload, text string) {
	id := uuid.New()
	var key, url, provider string
	if cfg.Storage != nil {
		key = objectKey(id, up.filename, up.mime)
		stored, err := retry(3, func() (string, error) {
			return cfg.Storage.Upload(ctx, key, up.mime, up.data)
		})
		if err != nil {
			log.Printf("⚠️ failed to store %s: %v", up.filename, err)
			key = ""
		} else {
			url, provider = stored, cfg.Storage.Provider()
		}
	}

	if cfg.DB != nil {
		_, err := cfg.DB.CreateResume(ctx, database.CreateResumeParams{
			ID:               id,
			OriginalFilename: up.filename,
			Mime:             up.mime,
			SizeBytes:        int64(len(up.data)),
			StorageProvider:  provider,
			ObjectKey:        key,
			StorageUrl:       url,
			UploadStatus:     StatusCompleted,
			ExtractedText:    sql.NullString{String: text, Valid: true},
		})
		if err != nil {
			log.Printf("⚠️ failed to save resume %s: %v", id, err)
			return
		}
	}

	cfg.publishUpdate(ResumeJob{ResumeID: id}, StatusCompleted, "text extracted")
}

func (cfg *ServerConfig) handleCreateResume(c *gin.Context) {
	if cfg.Storage == nil || cfg.DB == nil || cfg.Publisher == nil {
		respondError(c, http.StatusServiceUnavailable, "asynchronous resume intake is not configured")
		return
	}
	up, ok := cfg.readFileField(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	id := uuid.New()
	key := objectKey(id, up.filename, up.mime)
	url, err := retry(3, func() (string, error) {
		return cfg.Storage.Upload(ctx, key, up.mime, up.data)
	})
	if err != nil {
		log.Printf("⚠️ failed to store %s: %v", up.filename, err)
		respondError(c, http.StatusInternalServerError, "failed to store file")
		return
	}

	_, err = cfg.DB.CreateResume(ctx, database.CreateResumeParams{
		ID:               id,
		OriginalFilename: up.filename,
		Mime:             up.mime,
		SizeBytes:        int64(len(up.data)),
		StorageProvider:  cfg.Storage.Provider(),
		ObjectKey:        key,
		StorageUrl:       url,
		UploadStatus:     StatusPending,
	})
	if err != nil {
		log.Printf("error saving resume %s: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to save resume")
		return
	}

	job := ResumeJob{ResumeID: id, ObjectKey: key, Mime: up.mime, Filename: up.filename}
	if err := cfg.Publisher.PublishResumeJob(job); err != nil {
		log.Printf("error queueing resume %s: %v", id, err)
		if err := cfg.DB.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{UploadStatus: StatusFailed, ID: id}); err != nil {
			log.Printf("error marking resume %s failed: %v", id, err)
		}
		respondError(c, http.StatusInternalServerError, "failed to queue resume")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": StatusPending})
}

func (cfg *ServerConfig) handleGetResume(c *gin.Context) {
	if cfg.DB == nil {
		respondError(c, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid resume id")
		return
	}
	resume, err := cfg.DB.GetResume(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(c, http.StatusNotFound, "resume not found")
		return
	}
	if err != nil {
		log.Printf("error loading resume %s: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to load resume")
		return
	}
	c.JSON(http.StatusOK, resumeResponse{
		ID:       resume.ID,
		Filename: resume.OriginalFilename,
		Mime:     resume.Mime,
		Status:   resume.UploadStatus,
		Text:     resume.ExtractedText.String,
	})
}

func (cfg *ServerConfig) handleStartInterview(c *gin.Context) {
	if cfg.Interviewer == nil {
		respondError(c, http.StatusServiceUnavailable, "interviewer is not configured")
		return
	}
	var req startInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := c.Request.Context()

	resumeText := req.ResumeText
	var resumeID uuid.NullUUID
	if req.ResumeID != "" {
		if cfg.DB == nil {
			respondError(c, http.StatusServiceUnavailable, "database is not configured")
			return
		}
		id, err := uuid.Parse(req.ResumeID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid resume id")
			return
		}
		resume, err := cfg.DB.GetResume(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, "resume not found")
			return
		}
		if err != nil {
			log.Printf("error loading resume %s: %v", id, err)
			respondError(c, http.StatusInternalServerError, "failed to load resume")
			return
		}
		resumeText = resume.ExtractedText.String
		resumeID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if strings.TrimSpace(resumeText) == "" {
		respondError(c, http.StatusBadRequest, "resume text is required")
		return
	}

	sessionID := uuid.New()
	if cfg.DB != nil {
		err := cfg.DB.CreateInterviewSession(ctx, database.CreateInterviewSessionParams{
			ID:       sessionID,
			ResumeID: resumeID,
			Status:   StatusActive,
		})
		if err != nil {
			log.Printf("error saving interview session %s: %v", sessionID, err)
			respondError(c, http.StatusInternalServerError, "failed to start interview")
			return
		}
	}

	reply, err := cfg.Interviewer.Start(ctx, sessionID, resumeText)
	if err != nil {
		log.Printf("error starting interview %s: %v", sessionID, err)
		cfg.setInterviewStatus(ctx, sessionID, StatusFailed)
		respondError(c, http.StatusBadGateway, "interviewer failed to respond")
		return
	}
	cfg.saveMessage(ctx, sessionID, RoleCandidate, openingMessage(resumeText))
	cfg.saveMessage(ctx, sessionID, RoleInterviewer, reply)
	cfg.speak(reply)

	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID, "reply": reply})
}

func (cfg *ServerConfig) handleInterviewMessage(c *gin.Context) {
	if cfg.Interviewer == nil {
		respondError(c, http.StatusServiceUnavailable, "interviewer is not configured")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid session id")
		return
	}
	var req interviewMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondError(c, http.StatusBadRequest, "content is required")
		return
	}
	ctx := c.Request.Context()

	reply, err := cfg.Interviewer.Reply(ctx, sessionID, req.Content)
	if errors.Is(err, ErrUnknownSession) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("error in interview %s: %v", sessionID, err)
		respondError(c, http.StatusBadGateway, "interviewer failed to respond")
		return
	}
	cfg.saveMessage(ctx, sessionID, RoleCandidate, req.Content)
	cfg.saveMessage(ctx, sessionID, RoleInterviewer, reply)
	cfg.speak(reply)

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (cfg *ServerConfig) handleInterviewFeedback(c *gin.Context) {
	if cfg.Interviewer == nil {
		respondError(c, http.StatusServiceUnavailable, "interviewer is not configured")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid session id")
		return
	}
	ctx := c.Request.Context()

	raw, err := cfg.Interviewer.Feedback(ctx, sessionID)
	if errors.Is(err, ErrUnknownSession) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("error getting feedback for %s: %v", sessionID, err)
		respondError(c, http.StatusBadGateway, "interviewer failed to respond")
		return
	}
	feedback, err := parseFeedback(raw)
	if err != nil {
		log.Printf("⚠️ unusable feedback for %s: %v", sessionID, err)
		respondError(c, http.StatusBadGateway, "interviewer returned malformed feedback")
		return
	}

	if cfg.DB != nil {
		feedbackJSON, err := json.Marshal(feedback)
		if err == nil {
			_, err = retry(3, func() (any, error) {
				return nil, cfg.DB.CreateOrUpdateInterviewFeedback(ctx, database.CreateOrUpdateInterviewFeedbackParams{
					Feedback:  feedbackJSON,
					SessionID: sessionID,
				})
			})
		}
		if err != nil {
			log.Printf("⚠️ failed to save feedback for %s: %v", sessionID, err)
		}
	}

	if err := cfg.Interviewer.End(ctx, sessionID); err != nil && !errors.Is(err, ErrUnknownSession) {
		log.Printf("error ending interview %s: %v", sessionID, err)
	}
	cfg.setInterviewStatus(ctx, sessionID, StatusCompleted)
	cfg.speak(feedback.Summary)

	c.JSON(http.StatusOK, feedback)
}

func (cfg *ServerConfig) handleEndInterview(c *gin.Context) {
	if cfg.Interviewer == nil {
		respondError(c, http.StatusServiceUnavailable, "interviewer is not configured")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid session id")
		return
	}
	ctx := c.Request.Context()
	err = cfg.Interviewer.End(ctx, sessionID)
	if errors.Is(err, ErrUnknownSession) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("error ending interview %s: %v", sessionID, err)
		respondError(c, http.StatusInternalServerError, "failed to end interview")
		return
	}
	cfg.setInterviewStatus(ctx, sessionID, StatusCompleted)
	c.Status(http.StatusNoContent)
}

func (cfg *ServerConfig) handleSpeak(c *gin.Context) {
	if cfg.Speech == nil {
		respondError(c, http.StatusServiceUnavailable, "text-to-speech is not enabled")
		return
	}
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		respondError(c, http.StatusBadRequest, "text is required")
		return
	}
	err := cfg.Speech.Enqueue(req.Text)
	switch {
	case errors.Is(err, speech.ErrQueueFull):
		respondError(c, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (cfg *ServerConfig) speak(text string) {
	if cfg.Speech == nil {
		return
	}
	if err := cfg.Speech.Enqueue(text); err != nil {
		log.Printf("⚠️ failed to queue speech: %v", err)
	}
}

func (cfg *ServerConfig) saveMessage(ctx context.Context, sessionID uuid.UUID, role, content string) {
	if cfg.DB == nil {
		return
	}
	err := cfg.DB.CreateInterviewMessage(ctx, database.CreateInterviewMessageParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		log.Printf("⚠️ failed to save %s message for %s: %v", role, sessionID, err)
	}
}

func (cfg *ServerConfig) setInterviewStatus(ctx context.Context, sessionID uuid.UUID, status string) {
	if cfg.DB == nil {
		return
	}
	// detached so a cancelled request still records the final status
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := cfg.DB.UpdateInterviewSessionStatus(ctx, database.UpdateInterviewSessionStatusParams{
		Status: status,
		ID:     sessionID,
	})
	if err != nil {
		log.Printf("⚠️ failed to set interview %s to %s: %v", sessionID, status, err)
	}
}
