package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"igharvest/pkg/config"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "loud"},
			wantErr: true,
		},
		{
			name:    "file output in nested directory",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(dir, "logs", "run.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"panic", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igharvest.log")
	l, err := New(&config.LoggingConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.WithField("post_id", "ABC123").Info("Post processed")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"post_id":"ABC123"`, `"app":"igharvest"`, "Post processed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log file missing %q: %s", want, out)
		}
	}
}

func TestTestLoggerChildrenShareBuffer(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "overlay").WithError(errors.New("stuck"))
	child.Warn("Close strategy had no effect")
	tl.Info("plain")

	msgs := tl.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Fields["component"] != "overlay" || msgs[0].Error != "stuck" {
		t.Errorf("child context not captured: %+v", msgs[0])
	}
	if len(msgs[1].Fields) != 0 {
		t.Errorf("parent picked up child fields: %+v", msgs[1])
	}
	if !tl.HasMessageContaining("no effect") {
		t.Error("HasMessageContaining() = false")
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("Clear() left messages behind")
	}
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogStage(tl, "run-1", "discovering", "extracting")
	LogPostResult(tl, "ABC", 1, 3, 4, nil)
	LogPostResult(tl, "DEF", 2, 3, 0, errors.New("timeout"))
	LogExportTally(tl, "archive", 3, 1, time.Second)
	LogCloseStrategy(tl, "escape", 1, true)

	if !tl.HasMessage("Run stage changed") {
		t.Error("missing stage message")
	}
	warns := tl.GetMessagesByLevel("WARN")
	if len(warns) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warns))
	}
	if warns[0].Error != "timeout" {
		t.Errorf("post failure error = %q", warns[0].Error)
	}
	if tl.GetMessagesByLevel("DEBUG")[0].Fields["strategy"] != "escape" {
		t.Error("close strategy field missing")
	}
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	Info("hello")
	WithField("k", "v").Warn("warned")
	WithError(errors.New("x")).Error("failed")

	if len(tl.GetMessages()) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(tl.GetMessages()))
	}
	if !tl.HasError() {
		t.Error("HasError() = false")
	}
	if OrDefault(nil) != Logger(tl) {
		t.Error("OrDefault(nil) should return the global logger")
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("e")).Info("ignored")
	if l.GetZerolog() != nil {
		t.Error("nop logger should not expose zerolog")
	}
}

func TestFileOnlyOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := New(&config.LoggingConfig{Level: "info", File: path, Console: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.WithFields(map[string]interface{}{"mode": "smart", "posts": 3}).Info("Run finished")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for _, want := range []string{`"mode":"smart"`, `"posts":3`, `"level":"info"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q: %s", want, data)
		}
	}
}

func TestDiscardWithoutOutputs(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.WithError(errors.New("ignored")).Error("nowhere")
}
