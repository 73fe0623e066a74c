package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
)

const (
	// MaxAudioSize bounds uploaded speech, roughly one minute of 16kHz LINEAR16.
	MaxAudioSize = 2 * 1024 * 1024

	ServiceName = "personal-ai-teacher"
)

type TutorHandler struct {
	tutor       *usecase.TutorService
	title       string
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer
	renderer    *PageRenderer
}

// NewTutorHandler wires the HTTP surface. transcriber and synthesizer may be
// nil, which disables the matching endpoints.
func NewTutorHandler(tutor *usecase.TutorService, title string, transcriber domain.Transcriber, synthesizer domain.Synthesizer) *TutorHandler {
	return &TutorHandler{
		tutor:       tutor,
		title:       title,
		transcriber: transcriber,
		synthesizer: synthesizer,
		renderer:    NewPageRenderer(),
	}
}

// Register mounts the page and the JSON API on e.
func (h *TutorHandler) Register(e *echo.Echo) {
	e.Renderer = h.renderer

	e.GET("/", h.Page)
	e.POST("/ask", h.SubmitAsk)
	e.POST("/select", h.SubmitSelect)

	api := e.Group("/api/v1")
	api.GET("/health", h.HealthCheck)
	api.GET("/options", h.Options)
	api.GET("/state", h.State)
	api.PATCH("/context", h.UpdateContext)
	api.POST("/prompts/select", h.SelectPrompt)
	api.POST("/ask", h.Ask)
	api.POST("/transcribe", h.Transcribe)
	api.POST("/speech", h.Speech)
}

// RequestContext carries the echo request id into the logger context.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id == "" {
			id = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		if id != "" {
			c.SetRequest(c.Request().WithContext(log.ContextWithRequestID(c.Request().Context(), id)))
		}
		return next(c)
	}
}

type ContextPatch struct {
	Role          *string          `json:"role,omitempty"`
	TeachingStyle *string          `json:"teaching_style,omitempty"`
	Semester      *domain.Semester `json:"semester,omitempty"`
	Question      *string          `json:"question,omitempty"`
}

type SelectPromptRequest struct {
	Prompt string `json:"prompt"`
}

type SemesterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OptionsResponse struct {
	Title     string           `json:"title"`
	Semesters []SemesterOption `json:"semesters"`
	Prompts   []string         `json:"prompts"`
}

func (h *TutorHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"service":      ServiceName,
		"model_status": h.tutor.Snapshot().Status,
	})
}

func (h *TutorHandler) Options(c echo.Context) error {
	semesters := domain.Semesters()
	resp := OptionsResponse{
		Title:     h.title,
		Semesters: make([]SemesterOption, len(semesters)),
		Prompts:   h.tutor.Prompts(),
	}
	for i, s := range semesters {
		resp.Semesters[i] = SemesterOption{Value: s.String(), Label: s.Label()}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TutorHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tutor.Snapshot())
}

func (h *TutorHandler) UpdateContext(c echo.Context) error {
	var patch ContextPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid context").SetInternal(err)
	}
	if err := h.applyPatch(c.Request().Context(), patch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.tutor.Snapshot())
}

func (h *TutorHandler) applyPatch(ctx context.Context, patch ContextPatch) error {
	if patch.Semester != nil {
		if _, err := h.tutor.SetSemester(ctx, *patch.Semester); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid semester").SetInternal(err)
		}
	}
	if patch.Role != nil {
		h.tutor.SetRole(ctx, *patch.Role)
	}
	if patch.TeachingStyle != nil {
		h.tutor.SetTeachingStyle(ctx, *patch.TeachingStyle)
	}
	if patch.Question != nil {
		h.tutor.SetQuestion(ctx, *patch.Question)
	}
	return nil
}

func (h *TutorHandler) SelectPrompt(c echo.Context) error {
	var req SelectPromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request").SetInternal(err)
	}
	snap, err := h.tutor.SelectPrompt(c.Request().Context(), req.Prompt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown prompt").SetInternal(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Ask optionally applies a context patch, then runs one request cycle.
func (h *TutorHandler) Ask(c echo.Context) error {
	ctx := c.Request().Context()

	if c.Request().ContentLength != 0 {
		var patch ContextPatch
		if err := c.Bind(&patch); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid context").SetInternal(err)
		}
		if err := h.applyPatch(ctx, patch); err != nil {
			return err
		}
	}

	snap, err := h.tutor.Run(ctx)
	switch {
	case errors.Is(err, usecase.ErrBusy):
		return c.JSON(http.StatusConflict, snap)
	case errors.Is(err, usecase.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, snap)
	case err != nil:
		log.WithCtx(ctx).Error("Unexpected run error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, usecase.MsgRequestFailed)
	}
	return c.JSON(http.StatusOK, snap)
}

// Transcribe turns a spoken question into the question field.
func (h *TutorHandler) Transcribe(c echo.Context) error {
	if h.transcriber == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Speech input is disabled")
	}
	ctx := c.Request().Context()

	audio, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxAudioSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read audio").SetInternal(err)
	}
	if len(audio) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Empty audio")
	}
	if len(audio) > MaxAudioSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Audio too large")
	}

	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.WithCtx(ctx).Error("Error transcribing question", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Failed to transcribe audio")
	}

	return c.JSON(http.StatusOK, h.tutor.SetQuestion(ctx, text))
}

// Speech reads the current result aloud.
func (h *TutorHandler) Speech(c echo.Context) error {
	if h.synthesizer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Speech output is disabled")
	}
	ctx := c.Request().Context()

	snap := h.tutor.Snapshot()
	if snap.Result == "" {
		return echo.NewHTTPError(http.StatusConflict, "Nothing to read yet")
	}

	audio, err := h.synthesizer.Synthesize(ctx, snap.Result)
	if err != nil {
		log.WithCtx(ctx).Error("Error synthesizing result", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to synthesize speech")
	}

	if snap.ResultDigest != "" {
		c.Response().Header().Set("ETag", `"`+snap.ResultDigest+`"`)
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}
