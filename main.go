package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/muhammadolammi/interviewpro/internal/config"
	"github.com/muhammadolammi/interviewpro/internal/database"
	"github.com/muhammadolammi/interviewpro/internal/extract"
	"github.com/muhammadolammi/interviewpro/internal/speech"
	"github.com/streadway/amqp"
)

func main() {
	cfg, err := config.Load(os.Getenv("INTERVIEWPRO_CONFIG"))
	if err != nil {
		log.Fatal("error loading config. err: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config. err: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pdfExtractor, err := extract.New(cfg.Extract.PDF)
	if err != nil {
		log.Fatal(err)
	}
	serverConfig := ServerConfig{
		Extractor:      pdfExtractor,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RABBITMQUrl:    cfg.RabbitMQ.URL,
	}

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal("error opening db. err: ", err)
		}
		defer db.Close()
		serverConfig.DB = database.New(db)
	} else {
		log.Println("empty DB_URL, resumes and interviews will not be saved")
	}

	if cfg.R2.Enabled() {
		storage, err := NewR2Storage(ctx, cfg.R2)
		if err != nil {
			log.Fatal(err)
		}
		serverConfig.Storage = storage
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatalf("error connecting to RabbitMQ. err:  %v", err)
		}
		defer conn.Close()
		publisher, err := NewRabbitPublisher(conn)
		if err != nil {
			log.Fatalf("error setting up RabbitMQ. err: %v", err)
		}
		serverConfig.Publisher = publisher
	}

	if cfg.LLM.APIKey != "" {
		interviewerAgent, err := GetAgent(ctx, cfg.LLM.APIKey, cfg.LLM.Model, "interviewer")
		if err != nil {
			log.Fatalf("failed to create agent: %v", err)
		}
		interviewer, err := NewAgentInterviewer(interviewerAgent)
		if err != nil {
			log.Fatalf("failed to create interviewer: %v", err)
		}
		serverConfig.Interviewer = interviewer
	} else {
		log.Println("empty GOOGLE_API_KEY, interview endpoints are disabled")
	}

	var speechQueue *speech.Queue
	if cfg.Speech.Enabled {
		speechQueue = speech.NewQueue(speech.NewCommandSpeaker(cfg.Speech.Command, cfg.Speech.Args...), cfg.Speech.QueueSize)
		serverConfig.Speech = speechQueue
	}

	if serverConfig.Storage != nil && serverConfig.DB != nil && serverConfig.RABBITMQUrl != "" {
		log.Printf("Starting %d workers consumer pool", cfg.Server.Workers)
		go serverConfig.StartConsumerWorkerPool(ctx, cfg.Server.Workers)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           serverConfig.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Serving on port: %s (pdf extractor: %s)", cfg.Server.Port, cfg.Extract.PDF)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down server: %v", err)
	}
	if speechQueue != nil {
		if err := speechQueue.Close(shutdownCtx); err != nil {
			log.Printf("speech queue did not drain: %v", err)
		}
	}
}
