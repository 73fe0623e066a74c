package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/subosito/gotenv"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

const (
	DefaultModel        = "gemini-1.5-flash"
	DefaultHTTPAddr     = ":8080"
	DefaultLanguageCode = "en-US"
	DefaultRateLimit    = 20
)

// apiKeyVars are checked in order; the last one is the name the browser build used.
var apiKeyVars = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "VITE_GOOGLE_API_KEY"}

type Config struct {
	APIKey     string
	Model      string
	APIVersion string
	BaseURL    string
	Session    domain.SessionConfig

	HTTPAddr  string
	RateLimit float64

	Debug     bool
	LogFile   string
	TraceFile string

	CatalogFile string

	SpeechEnabled bool
	TTSEnabled    bool
	LanguageCode  string
}

// Load reads an optional .env file and then the process environment.
// A missing API key is not an error: the tutor starts in the unavailable state.
func Load() (Config, error) {
	_ = gotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Model:        DefaultModel,
		Session:      domain.DefaultSessionConfig(),
		HTTPAddr:     DefaultHTTPAddr,
		RateLimit:    DefaultRateLimit,
		LanguageCode: DefaultLanguageCode,
	}

	for _, name := range apiKeyVars {
		if v := getenv(name); v != "" {
			cfg.APIKey = v
			break
		}
	}

	setString(getenv, "GEMINI_MODEL", &cfg.Model)
	setString(getenv, "GEMINI_API_VERSION", &cfg.APIVersion)
	setString(getenv, "GEMINI_BASE_URL", &cfg.BaseURL)
	setString(getenv, "HTTP_ADDR", &cfg.HTTPAddr)
	setString(getenv, "LOG_FILE", &cfg.LogFile)
	setString(getenv, "TRACE_FILE", &cfg.TraceFile)
	setString(getenv, "CATALOG_FILE", &cfg.CatalogFile)
	setString(getenv, "LANGUAGE_CODE", &cfg.LanguageCode)

	var err error
	if cfg.Debug, err = parseBool(getenv, "DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.SpeechEnabled, err = parseBool(getenv, "SPEECH_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.TTSEnabled, err = parseBool(getenv, "TTS_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = parseFloat(getenv, "RATE_LIMIT", cfg.RateLimit); err != nil {
		return Config{}, err
	}

	temperature, err := parseFloat(getenv, "TEMPERATURE", float64(cfg.Session.Temperature))
	if err != nil {
		return Config{}, err
	}
	topP, err := parseFloat(getenv, "TOP_P", float64(cfg.Session.TopP))
	if err != nil {
		return Config{}, err
	}
	topK, err := parseInt32(getenv, "TOP_K", cfg.Session.TopK)
	if err != nil {
		return Config{}, err
	}
	maxTokens, err := parseInt32(getenv, "MAX_OUTPUT_TOKENS", cfg.Session.MaxOutputTokens)
	if err != nil {
		return Config{}, err
	}
	if maxTokens <= 0 {
		return Config{}, fmt.Errorf("MAX_OUTPUT_TOKENS must be positive, got %d", maxTokens)
	}

	cfg.Session = domain.SessionConfig{
		Temperature:     float32(temperature),
		TopP:            float32(topP),
		TopK:            topK,
		MaxOutputTokens: maxTokens,
	}

	return cfg, nil
}

func setString(getenv func(string) string, name string, dst *string) {
	if v := getenv(name); v != "" {
		*dst = v
	}
}

func parseBool(getenv func(string) string, name string, def bool) (bool, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", name, err)
	}
	return b, nil
}

func parseFloat(getenv func(string) string, name string, def float64) (float64, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return f, nil
}

func parseInt32(getenv func(string) string, name string, def int32) (int32, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return int32(i), nil
}
