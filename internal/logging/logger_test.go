package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("hidden")
	batch := WithComponent(logger, "batch")
	batch.Warn().Int("failed", 2).Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["message"] != "visible" || entry[FieldComponent] != "batch" || entry["failed"] != float64(2) || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestAutoFormatFallsBackToJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Str("provider", "bijian").Msg("hello")
	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "hello") || !strings.Contains(out, "bijian") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected format error")
	}
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected level error")
	}
}

func TestWithJobAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx, id := WithJob(base.WithContext(context.Background()), "jianying", "/media/a.mp4")
	if len(id) != 20 {
		t.Fatalf("unexpected job id %q", id)
	}
	zerolog.Ctx(ctx).Info().Msg("step")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[FieldJobID] != id || entry[FieldProvider] != "jianying" || entry[FieldMedia] != "/media/a.mp4" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
