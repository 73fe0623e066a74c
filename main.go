package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/cocoa-fruit/teacher/adapters/catalog"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/hasher"
	tutorhttp "github.com/satriahrh/cocoa-fruit/teacher/adapters/http"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/speech"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/tts"
	"github.com/satriahrh/cocoa-fruit/teacher/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/usecase"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/config"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/log"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.With(zap.Error(err)).Fatal("Invalid configuration")
	}
	log.Setup(cfg.Debug, cfg.LogFile)
	defer log.Sync()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.TraceFile)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Failed to start tracing")
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Failed to load prompt catalog")
	}

	var model domain.Llm
	gemini, initErr := llm.NewGeminiClient(ctx, llm.Options{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		APIVersion: cfg.APIVersion,
		BaseURL:    cfg.BaseURL,
	})
	if initErr == nil {
		model = gemini
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	svc := usecase.NewTutorService(usecase.Options{
		Llm:     model,
		InitErr: initErr,
		Session: cfg.Session,
		Context: cat.Context(),
		Prompts: cat.Prompts,
		Hasher:  hasher.New(),
		Broker:  broker,
	})

	var transcriber domain.Transcriber
	if cfg.SpeechEnabled {
		googleSpeech, err := speech.NewGoogleSpeech(ctx, cfg.LanguageCode)
		if err != nil {
			log.With(zap.Error(err)).Error("Speech input disabled")
		} else {
			defer googleSpeech.Close()
			transcriber = googleSpeech
		}
	}
	var synthesizer domain.Synthesizer
	if cfg.TTSEnabled {
		googleTTS, err := tts.NewGoogleTTS(ctx, cfg.LanguageCode)
		if err != nil {
			log.With(zap.Error(err)).Error("Speech output disabled")
		} else {
			defer googleTTS.Close()
			synthesizer = googleTTS
		}
	}

	server := websocket.NewServer(svc, broker)
	go func() {
		if err := server.ListenState(ctx); err != nil {
			log.With(zap.Error(err)).Error("Tutor state listener failed")
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(tutorhttp.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	e.Use(middleware.BodyLimit("4M"))

	tutorhttp.NewTutorHandler(svc, cat.Title, transcriber, synthesizer).Register(e)
	e.GET("/ws", server.Handler)

	go func() {
		log.With(zap.String("addr", cfg.HTTPAddr), zap.String("model", cfg.Model)).Info("Starting server")
		log.With().Info("Available endpoints",
			zap.Strings("routes", []string{
				"GET  /                      - Tutor page",
				"GET  /api/v1/health         - Health check",
				"GET  /api/v1/options        - Semesters and predefined prompts",
				"GET  /api/v1/state          - Current state",
				"PATCH /api/v1/context       - Update role, style, semester, question",
				"POST /api/v1/prompts/select - Use a predefined prompt",
				"POST /api/v1/ask            - Ask the model",
				"POST /api/v1/transcribe     - Spoken question",
				"POST /api/v1/speech         - Read the result aloud",
				"GET  /ws                    - State updates",
			}))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.With(zap.Error(err)).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	log.With().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server.GetHub().CloseAll()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.With(zap.Error(err)).Error("Error shutting down server")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.With(zap.Error(err)).Error("Error flushing traces")
	}
}
