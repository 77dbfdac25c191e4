package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, JSON: true, Output: &buf}).WithComponent(ComponentCategory)

	logger.Info("Category mutation applied", FieldCategory, "cloud")
	logger.Debug("filtered out")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "Category mutation applied", line["msg"])
	assert.Equal(t, ComponentCategory, line["component"])
	assert.Equal(t, "cloud", line["category"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()).Logger, "falls back to the default logger")

	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	ctx := WithLogger(context.Background(), logger.With(FieldRequestID, "req-1"))
	FromContext(ctx).InfoContext(ctx, "hello")
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestLogErrorAddsOperationFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	fields := NewFields()
	fields[FieldAPIStatus] = 502
	sl.LogError(context.Background(), "Operation failed", assert.AnError, ComponentWhitelist, OpReplace, fields)

	out := buf.String()
	assert.Contains(t, out, "operation=replace_domains")
	assert.Contains(t, out, "api_status=502")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "component=whitelist")
	assert.Equal(t, 1, strings.Count(out, "component="))
}

func TestLogCategoryMutationTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}).WithComponent(ComponentTrace).With(FieldRequestID, "req-9"))

	sl.LogCategoryMutation(context.Background(), OpCreate, "cloud", "100.00", 2)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="), out)
	assert.Contains(t, out, "component=category")
	assert.Contains(t, out, "request_id=req-9")
	assert.Contains(t, out, "domain_count=2")
}

func TestCallSiteComponentWins(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).WithComponent(ComponentHTTP)

	logger.Warn("Rate limit exceeded", FieldComponent, ComponentRateLimit)
	logger.Log(context.Background(), slog.LevelInfo, "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 1, strings.Count(lines[0], "component="))
	assert.Contains(t, lines[0], "component=rate_limit")
	assert.Contains(t, lines[1], "component=http")
}
