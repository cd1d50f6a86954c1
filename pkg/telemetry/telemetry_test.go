package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	shutdown, err := Init("microns-test", dir, false)
	require.NoError(t, err)

	_, span := Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	_, statErr := os.Stat(filepath.Join(dir, "telemetry.jsonl"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitEnabledWritesSpans(t *testing.T) {
	dir := t.TempDir()
	shutdown, err := Init("microns-test", dir, true)
	require.NoError(t, err)

	_, span := Start(context.Background(), "compose.up", attribute.String("manifest", "m.yml"))
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "compose.up")

	// later tests in the package expect the noop tracer
	_, err = Init("microns-test", dir, false)
	require.NoError(t, err)
}
