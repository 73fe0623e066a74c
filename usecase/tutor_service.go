package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

// Messages shown to the student in place of an answer.
const (
	MsgMissingAPIKey = "API key not found. Please configure it."
	MsgInitFailed    = "An error occurred during initialization."
	MsgRequestFailed = "An error occurred."
)

var (
	ErrBusy          = errors.New("a request is already in flight")
	ErrUnavailable   = errors.New("model client is unavailable")
	ErrUnknownPrompt = errors.New("unknown predefined prompt")
)

type Status string

const (
	StatusUnavailable Status = "unavailable"
	StatusReady       Status = "ready"
	StatusBusy        Status = "busy"
)

// Snapshot is a copy of the tutor state at one point in time.
type Snapshot struct {
	domain.PromptContext
	SelectedPrompt string `json:"selected_prompt"`
	Result         string `json:"result"`
	ResultDigest   string `json:"result_digest,omitempty"`
	Failed         bool   `json:"failed"`
	Status         Status `json:"status"`
}

type Options struct {
	// Llm is nil when the client could not be built; InitErr then says why.
	Llm     domain.Llm
	InitErr error
	Session domain.SessionConfig
	Context domain.PromptContext
	Prompts []string
	Hasher  domain.Hasher
	Broker  domain.MessageBroker
}

// TutorService owns the single page state: what the student picked, the last
// result and whether a request is in flight.
type TutorService struct {
	llm     domain.Llm
	session domain.SessionConfig
	prompts []string
	hasher  domain.Hasher
	broker  domain.MessageBroker
	tracer  trace.Tracer

	unavailableMsg string

	mu       sync.Mutex
	form     domain.PromptContext
	selected string
	result   string
	failed   bool
	status   Status
}

func NewTutorService(opts Options) *TutorService {
	s := &TutorService{
		llm:     opts.Llm,
		session: opts.Session,
		prompts: slices.Clone(opts.Prompts),
		hasher:  opts.Hasher,
		broker:  opts.Broker,
		tracer:  otel.Tracer("github.com/satriahrh/cocoa-fruit/teacher/usecase"),
		form:    opts.Context,
		status:  StatusReady,
	}
	if !s.form.Semester.Valid() {
		s.form.Semester = domain.FirstSemester
	}

	switch {
	case errors.Is(opts.InitErr, domain.ErrMissingAPIKey):
		s.unavailableMsg = MsgMissingAPIKey
	case opts.InitErr != nil || opts.Llm == nil:
		s.unavailableMsg = MsgInitFailed
	}
	if s.unavailableMsg != "" {
		s.status = StatusUnavailable
		s.result = s.unavailableMsg
		s.failed = true
		log.With(zap.Error(opts.InitErr)).Error("Model client unavailable")
	}

	return s
}

// Prompts returns the predefined prompts in display order.
func (s *TutorService) Prompts() []string {
	return slices.Clone(s.prompts)
}

func (s *TutorService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *TutorService) snapshotLocked() Snapshot {
	snap := Snapshot{
		PromptContext:  s.form,
		SelectedPrompt: s.selected,
		Result:         s.result,
		Failed:         s.failed,
		Status:         s.status,
	}
	if s.hasher != nil && s.result != "" {
		snap.ResultDigest = s.hasher.Hash([]byte(s.result))
	}
	return snap
}

func (s *TutorService) SetRole(ctx context.Context, role string) Snapshot {
	return s.update(ctx, func() { s.form.Role = role })
}

func (s *TutorService) SetTeachingStyle(ctx context.Context, style string) Snapshot {
	return s.update(ctx, func() { s.form.TeachingStyle = style })
}

func (s *TutorService) SetSemester(ctx context.Context, semester domain.Semester) (Snapshot, error) {
	if !semester.Valid() {
		return s.Snapshot(), fmt.Errorf("invalid semester %d", int(semester))
	}
	return s.update(ctx, func() { s.form.Semester = semester }), nil
}

func (s *TutorService) SetQuestion(ctx context.Context, question string) Snapshot {
	return s.update(ctx, func() { s.form.Question = question })
}

// SelectPrompt replaces the question with the literal text of a predefined
// prompt. The empty string is the "no selection" entry and clears the question.
func (s *TutorService) SelectPrompt(ctx context.Context, prompt string) (Snapshot, error) {
	if prompt != "" && !slices.Contains(s.prompts, prompt) {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownPrompt, prompt)
	}
	return s.update(ctx, func() {
		s.form.Question = prompt
		s.selected = prompt
	}), nil
}

func (s *TutorService) update(ctx context.Context, apply func()) Snapshot {
	s.mu.Lock()
	apply()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(ctx, snap)
	return snap
}

// Run sends the composed prompt to the model and stores the answer as the new
// result. It returns ErrBusy without side effects while another run is in
// flight, and ErrUnavailable when no model client exists. Request failures are
// not returned: they become the generic error result.
//
// The model call is detached from ctx cancellation and has no deadline, so a
// started run always finishes.
func (s *TutorService) Run(ctx context.Context) (snap Snapshot, err error) {
	prompt, snap, err := s.acquire()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.publish(ctx, snap)
		}
		return snap, err
	}
	s.publish(ctx, snap)

	result, failed := MsgRequestFailed, true
	defer func() {
		snap = s.release(ctx, result, failed)
	}()

	text, err := s.ask(context.WithoutCancel(ctx), prompt)
	if err != nil {
		log.WithCtx(ctx).Error("Error running model request", zap.Error(err))
		return snap, nil
	}
	result, failed = text, false
	return snap, nil
}

func (s *TutorService) acquire() (string, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusUnavailable:
		s.result = s.unavailableMsg
		s.failed = true
		return "", s.snapshotLocked(), ErrUnavailable
	case StatusBusy:
		return "", s.snapshotLocked(), ErrBusy
	}

	s.status = StatusBusy
	return s.form.Compose(), s.snapshotLocked(), nil
}

func (s *TutorService) release(ctx context.Context, result string, failed bool) Snapshot {
	s.mu.Lock()
	s.result = result
	s.failed = failed
	s.status = StatusReady
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(ctx, snap)
	return snap
}

func (s *TutorService) ask(ctx context.Context, prompt string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "tutor.ask", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.Int("session.max_output_tokens", int(s.session.MaxOutputTokens)),
	))
	defer span.End()

	chat, err := s.llm.GenerateChat(ctx, s.session, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("opening chat session: %w", err)
	}

	reply, err := chat.SendMessage(ctx, domain.ChatMessage{
		Role:    domain.UserRole,
		Content: prompt,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("reply.length", len(reply.Content)))
	return reply.Content, nil
}

func (s *TutorService) publish(ctx context.Context, snap Snapshot) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		log.WithCtx(ctx).Error("Error marshaling tutor state", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.StateTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("Error publishing tutor state", zap.Error(err))
	}
}
