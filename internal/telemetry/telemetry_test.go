package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	logger, closeFn, err := InitLogger(dir, true)
	require.NoError(t, err)

	logger.Debug("turn rendered", "role", "bot")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, "schedchat.log"))
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"turn rendered"`)
	assert.Contains(t, line, `"level":"DEBUG"`)
}

func TestStartExportsToFiles(t *testing.T) {
	dir := t.TempDir()
	tel, err := Start(context.Background(), Options{
		Dir:             dir,
		ServiceName:     "schedchat-test",
		ServiceVersion:  "0.0.1",
		MetricsInterval: time.Hour,
	})
	require.NoError(t, err)

	_, span := tel.Tracer.Start(context.Background(), "conversation.submit")
	span.End()

	counter, err := tel.Meter.Int64Counter("chat.turns")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	// Shutdown flushes both pipelines even though the interval never elapsed.
	require.NoError(t, tel.Shutdown(context.Background()))

	traces, err := os.ReadFile(filepath.Join(dir, "schedchat_traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(traces), "conversation.submit")
	assert.Contains(t, string(traces), "schedchat-test")

	metrics, err := os.ReadFile(filepath.Join(dir, "schedchat_metrics.log"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "chat.turns")
	assert.Contains(t, string(metrics), "0.0.1")
}

func TestStartDefaults(t *testing.T) {
	tel, err := Start(context.Background(), Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, tel.Shutdown(context.Background())) })

	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.Meter)
	assert.NotEmpty(t, moduleVersion())
}
