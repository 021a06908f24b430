package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/pkg/logging"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	original := *logging.Default()
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(level)
	})
}

func TestDefaultLogger(t *testing.T) {
	restoreDefault(t)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Err(errors.New("boom")).Msg("error message")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	restoreDefault(t)

	t.Run("json to writer with default fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "info",
			Format: "json",
			Writer: buf,
			Fields: map[string]any{"service": "collectionmap", "retention": 24 * time.Hour},
		})
		logger.Debug().Msg("hidden")
		logger.Info().Msg("visible")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"service":"collectionmap"`)
		assert.Contains(t, out, "visible")
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
		})
		logger.Info().Msg("to file")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "to file")
		assert.Contains(t, string(content), "caller")
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		cfg := logging.DefaultConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "auto", cfg.Format)
		_ = logging.NewLoggerFromConfig(nil)
	})
}

func TestContextHelpers(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRequestID(ctx, "req-1")
	ctx = logging.WithUploadID(ctx, "upload-7")
	ctx = logging.WithOperation(ctx, "map_upload")
	ctx = logging.WithFields(ctx, map[string]any{"rows": 3})
	ctx = logging.WithError(ctx, errors.New("conflict"))
	ctx = logging.WithError(ctx, nil)

	logging.FromContext(ctx).Info().Msg("committed")

	tl.AssertContains(t, `"request_id":"req-1"`)
	tl.AssertContains(t, `"upload_id":"upload-7"`)
	tl.AssertContains(t, `"operation":"map_upload"`)
	tl.AssertContains(t, `"rows":3`)
	tl.AssertContains(t, "conflict")
	tl.AssertNotContains(t, "panic")
	assert.Equal(t, "req-1", logging.RequestID(ctx))
	assert.Len(t, tl.Lines(), 1)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.Ctx(context.Background()))
}

func TestFromContextHonorsZerologContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	ctx := logger.WithContext(context.Background())

	logging.FromContext(ctx).Info().Msg("from zerolog ctx")
	assert.True(t, strings.Contains(buf.String(), "from zerolog ctx"))
}
