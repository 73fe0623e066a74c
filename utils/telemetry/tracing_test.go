package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/satriahrh/cocoa-fruit/teacher/utils/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := telemetry.InitTracing(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := filepath.Join(t.TempDir(), "traces.log")
	shutdown, err := telemetry.InitTracing(context.Background(), path)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "tutor.run")
	span.End()

	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tutor.run")
	assert.Contains(t, string(data), telemetry.ServiceName)
}
