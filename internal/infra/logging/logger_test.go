package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// setupTestLogger configures a logger with a custom writer for tests
func setupTestLogger(output *bytes.Buffer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	SetLoggerForTest(zerolog.New(output).With().Timestamp().Logger().Level(lvl))
}

func TestInfoLogging(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "info")

	Info("test message", "chat_id", 42, "photo", true)

	out := buf.String()
	if !strings.Contains(out, "test message") {
		t.Error("Expected log message not found in output")
	}
	if !strings.Contains(out, `"chat_id":42`) || !strings.Contains(out, `"photo":true`) {
		t.Error("Expected key-value pairs not found in output")
	}
}

func TestWarnAndErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "warn")

	Info("hidden")
	Warn("something odd", "code", 99)
	Error("upload failed", "error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record must be filtered at warn level")
	}
	if !strings.Contains(out, "something odd") || !strings.Contains(out, `"code":99`) {
		t.Error("Warn log output missing expected content")
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("error value not rendered as string: %s", out)
	}
}

func TestDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "debug")

	Debug("odd", "k", "v", "dangling")

	if !strings.Contains(buf.String(), `"EXTRA_VALUE_AT_END":"dangling"`) {
		t.Errorf("expected dangling key marker, got %s", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "warn")

	SetLogLevel("info")
	Info("should be visible")

	if !strings.Contains(buf.String(), "should be visible") {
		t.Error("Expected info log after SetLogLevel not found")
	}

	SetLogLevel("invalid")
	Info("still visible")
	if !strings.Contains(buf.String(), "still visible") {
		t.Error("invalid level must fall back to info")
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "signbot.log")
	InitLogger(logFile, 1, 1, 1, false, "invalid")
	Info("hello file", "k", "v")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected record in log file, got %q", string(data))
	}
}
