package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.ColorOutput = false
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	str := string(out)
	for _, want := range []string{"INFO", "[Test]", "Hello", "key=val"} {
		if !strings.Contains(str, want) {
			t.Errorf("Expected %q in %q", want, str)
		}
	}
	if !strings.HasSuffix(str, "\n") {
		t.Error("Expected trailing newline")
	}
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelError,
		Category: "Test",
		Message:  "Hello",
		Fields: []Field{
			{Key: "key", Value: "val"},
			{Key: "error", Value: errors.New("boom")},
		},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if data["level"] != "ERROR" {
		t.Error("Expected level ERROR")
	}
	if data["category"] != "Test" {
		t.Error("Expected category Test")
	}
	fields, ok := data["fields"].(map[string]any)
	if !ok {
		t.Fatal("Expected fields map")
	}
	if fields["key"] != "val" {
		t.Error("Expected key=val")
	}
	if fields["error"] != "boom" {
		t.Errorf("Expected error message to be serialized, got %v", fields["error"])
	}
}

func TestFactoryMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggingBuilder().
		SetMinimumLevel(LogLevelWarn).
		AddProvider(NewWriterLoggerProvider(&buf, NewTextFormatter())).
		Build()

	logger := factory.CreateLogger("LazyLoad")
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", Field{Key: "module", Value: "Feature1.wasm"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Messages below minimum level should be dropped: %q", out)
	}
	if !strings.Contains(out, "[LazyLoad] shown {module=Feature1.wasm}") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestWithFieldsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggingBuilder().
		AddProvider(NewWriterLoggerProvider(&buf, NewTextFormatter())).
		Build()

	base := factory.CreateLogger("base")
	a := base.WithFields(Field{Key: "a", Value: 1})
	b := base.WithFields(Field{Key: "b", Value: 2})

	a.Info("from-a")
	b.Info("from-b")
	base.WithCategory("other").Info("from-other")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if strings.Contains(lines[1], "a=1") {
		t.Errorf("Fields of sibling loggers must not leak: %q", lines[1])
	}
	if !strings.Contains(lines[2], "[other]") {
		t.Errorf("Expected category override: %q", lines[2])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing")
	logger.WithFields(Field{Key: "k", Value: "v"}).Error("nothing")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"Warning": LogLevelWarn,
		"error":   LogLevelError,
		" none ":  LogLevelNone,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}
