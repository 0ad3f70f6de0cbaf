package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.env)
		if got := LogLevel(); got != tt.want {
			t.Errorf("LOG_LEVEL=%q: expected %v, got %v", tt.env, tt.want, got)
		}
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	t.Setenv("LOG_LEVEL", "INFO")
	t.Setenv("LOG_FORMAT", "text")

	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf)
	WithStep(WithRunID(logger, "r-1"), 2, 0).Info("hello")

	out := buf.String()
	for _, want := range []string{"msg=hello", "run_id=r-1", "iteration=2", "position=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestFromContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.StepsTotal.WithLabelValues("delay", "SUCCEEDED").Inc()
	m.RunsTotal.WithLabelValues("FAILED").Add(2)
	m.StepDuration.WithLabelValues("delay").Observe(12)

	if got := gatherValue(t, reg, "perftool_steps_total", "delay", "SUCCEEDED"); got != 1 {
		t.Errorf("expected 1 step, got %v", got)
	}
	if got := gatherValue(t, reg, "perftool_runs_total", "FAILED"); got != 2 {
		t.Errorf("expected 2 runs, got %v", got)
	}
	if got := gatherValue(t, reg, "perftool_step_duration_ms", "delay"); got != 1 {
		t.Errorf("expected 1 observation, got %v", got)
	}
}

// gatherValue возвращает значение counter или число наблюдений histogram
// для серии с заданными значениями меток.
func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labelValues ...string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := m.GetLabel()
			if len(labels) != len(labelValues) {
				continue
			}
			for i, l := range labels {
				if l.GetValue() != labelValues[i] {
					continue metrics
				}
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
