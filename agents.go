package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

var ErrUnknownSession = errors.New("unknown interview session")

func GetAgent(ctx context.Context, apiKey, modelName, agentName string) (agent.Agent, error) {
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	interviewer, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       model,
		Description: "Conduct a behavioral interview from a resume",
		Instruction: prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return interviewer, nil
}

type runFunc func(ctx context.Context, userID, sessionID string, msg *genai.Content, cfg agent.RunConfig) iter.Seq2[*session.Event, error]

// AgentInterviewer keeps one agent session per interview in an in-memory session service.
type AgentInterviewer struct {
	appName  string
	run      runFunc
	sessions session.Service

	mu     sync.Mutex
	active map[uuid.UUID]string // session id -> user id
}

func NewAgentInterviewer(a agent.Agent) (*AgentInterviewer, error) {
	inMemoryService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        a.Name(),
		Agent:          a,
		SessionService: inMemoryService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return &AgentInterviewer{
		appName:  a.Name(),
		run:      r.Run,
		sessions: inMemoryService,
		active:   make(map[uuid.UUID]string),
	}, nil
}

func (ai *AgentInterviewer) Start(ctx context.Context, sessionID uuid.UUID, resumeText string) (string, error) {
	userID := "candidate-" + sessionID.String()
	_, err := ai.sessions.Create(ctx, &session.CreateRequest{
		AppName:   ai.appName,
		UserID:    userID,
		SessionID: sessionID.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	ai.mu.Lock()
	ai.active[sessionID] = userID
	ai.mu.Unlock()

	reply, err := ai.ask(ctx, userID, sessionID, openingMessage(resumeText))
	if err != nil {
		_ = ai.End(ctx, sessionID)
		return "", err
	}
	return reply, nil
}

func (ai *AgentInterviewer) Reply(ctx context.Context, sessionID uuid.UUID, content string) (string, error) {
	userID, ok := ai.user(sessionID)
	if !ok {
		return "", ErrUnknownSession
	}
	return ai.ask(ctx, userID, sessionID, content)
}

func (ai *AgentInterviewer) Feedback(ctx context.Context, sessionID uuid.UUID) (string, error) {
	userID, ok := ai.user(sessionID)
	if !ok {
		return "", ErrUnknownSession
	}
	return ai.ask(ctx, userID, sessionID, feedbackRequest())
}

func (ai *AgentInterviewer) End(ctx context.Context, sessionID uuid.UUID) error {
	ai.mu.Lock()
	userID, ok := ai.active[sessionID]
	delete(ai.active, sessionID)
	ai.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}

	err := ai.sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   ai.appName,
		UserID:    userID,
		SessionID: sessionID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (ai *AgentInterviewer) user(sessionID uuid.UUID) (string, bool) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	userID, ok := ai.active[sessionID]
	return userID, ok
}

// ask sends one candidate message and returns the agent's final text. It is not
// retried: the runner records the message in the session before the model
// answers, so a second attempt would repeat the candidate's turn.
func (ai *AgentInterviewer) ask(ctx context.Context, userID string, sessionID uuid.UUID, msg string) (string, error) {
	stream := ai.run(ctx, userID, sessionID.String(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: msg},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event == nil || !event.IsFinalResponse() || event.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range event.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		output = sb.String()
	}

	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return output, nil
}
