package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shaiso/Flagship/internal/events"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "INFO", "json").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&buf, "INFO", "text").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	NewLogger(&buf, "WARN", "json").Info("hidden")
	assert.Empty(t, buf.String())
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithAction(WithStepID(NewLogger(&buf, "INFO", "json"), "s1"), "http")

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("x")

	assert.Contains(t, buf.String(), `"step_id":"s1"`)
	assert.Contains(t, buf.String(), `"action":"http"`)

	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.HandleEvent(context.Background(), events.Event{Kind: events.KindFailed, Action: "http", Reason: "invalid_input"})
	m.HandleEvent(context.Background(), events.Event{Kind: events.KindFailed, Action: "http", Reason: "invalid_input"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("step.failed", "http", "invalid_input")))

	m.ObserveInvocation("http", false, 10*time.Millisecond)
	m.ObserveInvocation("http", true, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("http", OutcomeSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("http", OutcomeFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}
