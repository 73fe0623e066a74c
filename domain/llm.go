package domain

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when no credential is configured for the model client.
	ErrMissingAPIKey = errors.New("api key not configured")
	// ErrEmptyResponse is returned when the model replies without any candidate.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Llm abstracts any chat/LLM provider.
type Llm interface {
	// GenerateChat opens a chat session using the given generation parameters
	// and prior turns. An empty history starts a fresh conversation.
	GenerateChat(ctx context.Context, cfg SessionConfig, history []ChatMessage) (ChatSession, error)
}

type ChatSession interface {
	SendMessage(ctx context.Context, message ChatMessage) (ChatMessage, error)
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole    Role = "user"
	TeacherRole Role = "teacher"
)

// SessionConfig holds the generation parameters used for every chat session.
type SessionConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"top_p"`
	TopK            int32   `json:"top_k"`
	MaxOutputTokens int32   `json:"max_output_tokens"`
}

// DefaultSessionConfig returns the parameters the tutor runs with unless overridden.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Temperature:     1,
		TopP:            0.95,
		TopK:            64,
		MaxOutputTokens: 8192,
	}
}
