package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

const DefaultAPIVersion = "v1beta"

// Options configures the Gemini client. APIKey is required.
type Options struct {
	APIKey     string
	Model      string
	APIVersion string
	// BaseURL overrides the service endpoint, mostly for tests.
	BaseURL string
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ domain.Llm = (*GeminiClient)(nil)

// NewGeminiClient builds a client against the Gemini API. It fails with
// domain.ErrMissingAPIKey when no key is given.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("creating genai client: model name is required")
	}

	httpOpts := genai.HTTPOptions{APIVersion: opts.APIVersion, BaseURL: opts.BaseURL}
	if httpOpts.APIVersion == "" {
		httpOpts.APIVersion = DefaultAPIVersion
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, model: opts.Model}, nil
}

func (g *GeminiClient) GenerateChat(ctx context.Context, cfg domain.SessionConfig, history []domain.ChatMessage) (domain.ChatSession, error) {
	geminiHistory := make([]*genai.Content, len(history))
	for i, msg := range history {
		role := genai.RoleModel
		if msg.Role == domain.UserRole {
			role = genai.RoleUser
		}
		geminiHistory[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		}
	}

	chat, err := g.client.Chats.Create(ctx, g.model, generationConfig(cfg), geminiHistory)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	return &GeminiChatSession{chat: chat}, nil
}

func generationConfig(cfg domain.SessionConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		TopK:            genai.Ptr(float32(cfg.TopK)),
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

type GeminiChatSession struct {
	chat *genai.Chat
}

// SendMessage implements domain.ChatSession.
func (g *GeminiChatSession) SendMessage(ctx context.Context, message domain.ChatMessage) (
	domain.ChatMessage,
	error,
) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: message.Content})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("send message: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.ChatMessage{}, fmt.Errorf("send message: %w", domain.ErrEmptyResponse)
	}

	return domain.ChatMessage{
		Role:    domain.TeacherRole,
		Content: resp.Text(),
	}, nil
}
