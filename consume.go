package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/muhammadolammi/interviewpro/internal/database"
	"github.com/muhammadolammi/interviewpro/internal/extract"
	"github.com/streadway/amqp"
)

// retryBaseDelay is scaled by the attempt number between tries.
var retryBaseDelay = 500 * time.Millisecond

// retry retries a function up to `attempts` times with a growing delay between tries.
func retry[T any](attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(retryBaseDelay * time.Duration(i+1))
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// processResume downloads one stored upload, extracts its text and saves it.
// Network and DB calls are retried; extraction is not, it cannot fail transiently.
func processResume(ctx context.Context, job ResumeJob, cfg *ServerConfig) error {
	fileBytes, err := retry(3, func() ([]byte, error) {
		return cfg.Storage.Download(ctx, job.ObjectKey)
	})
	if err != nil {
		return fmt.Errorf("file download error: %w", err)
	}

	text, err := extract.ForMIME(job.Mime, fileBytes, cfg.Extractor)
	if err != nil {
		return fmt.Errorf("text extraction error: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("⚠️ no text recovered from %s", job.ObjectKey)
	}

	_, err = retry(3, func() (any, error) {
		return nil, cfg.DB.UpdateResumeText(ctx, database.UpdateResumeTextParams{
			ExtractedText: sql.NullString{String: text, Valid: true},
			UploadStatus:  StatusCompleted,
			ID:            job.ResumeID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save extracted text after retries: %w", err)
	}
	return nil
}

func (cfg *ServerConfig) publishUpdate(job ResumeJob, status, message string) {
	if cfg.Publisher == nil {
		return
	}
	err := cfg.Publisher.PublishResumeUpdate(ResumeUpdate{
		ResumeID:  job.ResumeID,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Println("failed to publish update:", err)
	}
}

// handleJob runs one queue message through processing and reports its status.
func handleJob(ctx context.Context, body []byte, cfg *ServerConfig) {
	job := ResumeJob{}
	if err := json.Unmarshal(body, &job); err != nil {
		log.Printf("error unmarshalling message body. err: %v", err)
		return
	}

	cfg.publishUpdate(job, StatusProcessing, "extraction started")
	if err := cfg.DB.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{
		UploadStatus: StatusProcessing,
		ID:           job.ResumeID,
	}); err != nil {
		log.Printf("error updating resume status for resume_id: %v. err: %v", job.ResumeID, err)
	}

	if err := processResume(ctx, job, cfg); err != nil {
		log.Printf("error processing resume_id: %v. err: %v", job.ResumeID, err)
		if err := cfg.DB.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{
			UploadStatus: StatusFailed,
			ID:           job.ResumeID,
		}); err != nil {
			log.Printf("error updating resume status for resume_id: %v. err: %v", job.ResumeID, err)
		}
		cfg.publishUpdate(job, StatusFailed, "extraction failed")
		return
	}

	cfg.publishUpdate(job, StatusCompleted, "extraction completed")
}

func worker(ctx context.Context, id int, cfg *ServerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	//    to consume message on the queue
	conn, err := amqp.Dial(cfg.RABBITMQUrl)
	if err != nil {
		log.Fatal("error dialling rabbitmq: " + err.Error())
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("error connecting to rabbitmq channel: " + err.Error())
	}
	defer ch.Close()
	_, err = ch.QueueDeclare(
		resumesQueue, // queue name
		true,         // durable (survives broker restarts)
		false,        // auto-delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatalf("Failed to set qos: %v", err)
	}

	msgs, err := ch.Consume(
		resumesQueue, // queue name
		"",           // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		log.Fatal("error consuming rabbitmq message: " + err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			log.Printf("Worker %d processing resume job", id+1)
			handleJob(ctx, msg.Body, cfg)
			if err := msg.Ack(false); err != nil {
				log.Println("failed to ack message:", err)
			}
		}
	}
}

// StartConsumerWorkerPool runs numWorkers consumers until ctx is cancelled.
func (cfg *ServerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		log.Println("worker id ", i+1, "started")
		go worker(ctx, i, cfg, &wg)
	}
	wg.Wait() // block until all workers finish
}
