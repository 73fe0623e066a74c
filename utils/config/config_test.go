package config_test

import (
	"testing"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
	"github.com/satriahrh/cocoa-fruit/teacher/utils/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil))
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, config.DefaultModel, cfg.Model)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, config.DefaultLanguageCode, cfg.LanguageCode)
	assert.Equal(t, float64(config.DefaultRateLimit), cfg.RateLimit)
	assert.Equal(t, domain.DefaultSessionConfig(), cfg.Session)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.SpeechEnabled)
	assert.False(t, cfg.TTSEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"VITE_GOOGLE_API_KEY": "browser-key",
		"GEMINI_MODEL":        "gemini-2.0-flash-001",
		"TEMPERATURE":         "0.5",
		"TOP_P":               "0.8",
		"TOP_K":               "32",
		"MAX_OUTPUT_TOKENS":   "2048",
		"HTTP_ADDR":           ":9090",
		"DEBUG":               "true",
		"TTS_ENABLED":         "1",
		"LOG_FILE":            "/tmp/tutor.log",
	}))
	require.NoError(t, err)

	assert.Equal(t, "browser-key", cfg.APIKey)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.Model)
	assert.Equal(t, domain.SessionConfig{
		Temperature:     0.5,
		TopP:            0.8,
		TopK:            32,
		MaxOutputTokens: 2048,
	}, cfg.Session)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.TTSEnabled)
	assert.Equal(t, "/tmp/tutor.log", cfg.LogFile)
}

func TestFromEnvAPIKeyPrecedence(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"GOOGLE_API_KEY":      "primary",
		"VITE_GOOGLE_API_KEY": "fallback",
	}))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.APIKey)
}

func TestFromEnvInvalid(t *testing.T) {
	for name, vars := range map[string]map[string]string{
		"bad top k":        {"TOP_K": "many"},
		"bad temperature":  {"TEMPERATURE": "hot"},
		"bad bool":         {"DEBUG": "yes please"},
		"zero max tokens":  {"MAX_OUTPUT_TOKENS": "0"},
		"overflow max tok": {"MAX_OUTPUT_TOKENS": "99999999999"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromEnv(env(vars))
			assert.Error(t, err)
		})
	}
}
