package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/muhammadolammi/interviewpro/internal/config"
	"github.com/muhammadolammi/interviewpro/internal/extract"
	"github.com/streadway/amqp"
)

const (
	resumesQueue         = "resumes"
	resumeUpdateExchange = "resume_updates"
)

func CleanJson(input string) string {
	clean := strings.TrimSpace(input)

	// Remove opening ```json or ``` with optional newline
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")

	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

func parseFeedback(raw string) (InterviewFeedback, error) {
	var fb InterviewFeedback
	cleaned := CleanJson(raw)
	if cleaned == "" {
		return fb, fmt.Errorf("empty response from agent")
	}
	if err := json.Unmarshal([]byte(cleaned), &fb); err != nil {
		return fb, fmt.Errorf("json unmarshal error: %w", err)
	}
	return fb, nil
}

func objectKey(id uuid.UUID, filename, mime string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		switch mime {
		case extract.MIMEPDF:
			ext = ".pdf"
		case extract.MIMEDOCX:
			ext = ".docx"
		case extract.MIMEText:
			ext = ".txt"
		}
	}
	return "resumes/" + id.String() + ext
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, f); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return buf.Bytes(), nil
}

// --- R2 Storage ---

type R2Storage struct {
	client *s3.Client
	bucket string
}

func NewR2Storage(ctx context.Context, r2 config.R2Config) (*R2Storage, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return &R2Storage{client: client, bucket: r2.Bucket}, nil
}

func (r *R2Storage) Provider() string { return "r2" }

func (r *R2Storage) Upload(ctx context.Context, key, mime string, data []byte) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mime),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return fmt.Sprintf("r2://%s/%s", r.bucket, key), nil
}

func (r *R2Storage) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// --- RabbitMQ ---

type RabbitPublisher struct {
	conn *amqp.Connection
}

func NewRabbitPublisher(conn *amqp.Connection) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(resumesQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.ExchangeDeclare(resumeUpdateExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn}, nil
}

func (p *RabbitPublisher) PublishResumeJob(job ResumeJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.publish("", resumesQueue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *RabbitPublisher) PublishResumeUpdate(update ResumeUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	routingKey := fmt.Sprintf("resume.%s", update.ResumeID)

	return p.publish(resumeUpdateExchange, routingKey, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *RabbitPublisher) publish(exchange, key string, msg amqp.Publishing) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.Publish(exchange, key, false, false, msg)
}
