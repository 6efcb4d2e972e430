package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initialising replaces the global.
	if err := Init(WithFormat(FormatText)); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestLoggerJSONToBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Named("runner").Info(ctx, "run finished", String("run_id", "r-1"), Int("score", 65), Error(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("buffer output is not JSON (%q): %v", buf.String(), err)
	}
	if rec["msg"] != "run finished" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["logger"] != "runner" {
		t.Errorf("logger = %v", rec["logger"])
	}
	if rec["score"] != float64(65) {
		t.Errorf("score = %v", rec["score"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %v", rec["source"])
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatText), WithLevel("warn")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	l := Get()
	l.Info(ctx, "hidden")
	l.Warn(ctx, "shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record missing")
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	l.Debug(ctx, "now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug record missing after level change")
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Init(WithLevel("loud")); err == nil {
		t.Error("expected Init to reject unknown level")
	}
	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected Init to reject unknown format")
	}
}

func TestLoggerFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "drivemind.log")

	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFile(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	Get().Info(context.Background(), "to both sinks")
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to both sinks") {
		t.Errorf("file sink missing record: %q", data)
	}
	if !strings.Contains(buf.String(), "to both sinks") {
		t.Errorf("writer sink missing record: %q", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
}
