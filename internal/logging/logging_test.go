package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewJSONWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("input", "fcd.csv")).Info(context.Background(), "converted",
		Int("rows", 12), Float64("max_timestep", 4.5), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "converted" || rec["input"] != "fcd.csv" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["rows"] != float64(12) || rec["max_timestep"] != 4.5 || rec["error"] != "boom" {
		t.Fatalf("unexpected fields: %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	log := NewFromEnv(&buf)

	log.Warn(context.Background(), "hidden")
	log.Error(context.Background(), "shown")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single JSON record: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "shown" || rec["level"] != "ERROR" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestWithRunLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, log := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run id %q is not a UUID: %v", id, err)
	}

	FromContext(ctx).Info(ctx, "hello")
	log.Info(ctx, "again")
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, id) {
			t.Fatalf("line lacks run id %s: %s", id, line)
		}
	}

	ctx2, _ := WithRunLogger(ctx, base)
	if got := RunIDFromContext(ctx2); got != id {
		t.Fatalf("run id changed: %s -> %s", id, got)
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	if _, ok := FromContext(context.Background()).(noopLogger); !ok {
		t.Fatalf("expected noop logger")
	}
	_, log := WithRunLogger(context.Background(), nil)
	log.Error(context.Background(), "dropped")
}
