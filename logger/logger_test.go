package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		level        Level
		messageLevel Level
		shouldLog    bool
	}{
		{"DEBUG logs at DEBUG level", DEBUG, DEBUG, true},
		{"INFO logs at DEBUG level", DEBUG, INFO, true},
		{"DEBUG doesn't log at INFO level", INFO, DEBUG, false},
		{"ERROR logs at INFO level", INFO, ERROR, true},
		{"WARN logs at ERROR level", ERROR, WARN, false},
		{"ERROR logs at ERROR level", ERROR, ERROR, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			result := logger.shouldLog(tt.messageLevel, "message")
			if result != tt.shouldLog {
				t.Errorf("shouldLog(%v) = %v, want %v", tt.messageLevel, result, tt.shouldLog)
			}
		})
	}
}

func TestComponentLevelOverride(t *testing.T) {
	logger := New(WARN)
	logger.componentLevels = map[string]Level{"rtkit": DEBUG}

	if !logger.shouldLog(DEBUG, "[rtkit] ceiling applied") {
		t.Error("DEBUG message of overridden component should be logged")
	}
	if logger.shouldLog(DEBUG, "[promoter] applying") {
		t.Error("DEBUG message of other component should follow global level")
	}
	if logger.shouldLog(INFO, "no prefix") {
		t.Error("INFO message without prefix should follow global level")
	}
}

func TestExtractComponent(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"[rtkit] hello", "rtkit"},
		{"[promoter]", "promoter"},
		{"rtkit hello", ""},
		{"[]", ""},
		{"[unterminated", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := extractComponent(tt.msg); got != tt.want {
				t.Errorf("extractComponent(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestLoggerFormat(t *testing.T) {
	logger := New(INFO)
	formatted := logger.format(INFO, "test message")

	if !strings.Contains(formatted, "[INFO ]") {
		t.Errorf("formatted message should contain '[INFO ]', got: %s", formatted)
	}
	if !strings.Contains(formatted, "test message") {
		t.Errorf("formatted message should contain 'test message', got: %s", formatted)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"Info", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"ERROR", ERROR},
		{"fatal", FATAL},
		{" info ", INFO},
		{"unknown", WARN},
		{"", WARN},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if INFO.String() != "INFO" {
		t.Errorf("INFO.String() = %q, want %q", INFO.String(), "INFO")
	}
	if Level(42).String() != "Level(42)" {
		t.Errorf("Level(42).String() = %q", Level(42).String())
	}
}

func TestGlobalOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(INFO)
	defer func() {
		SetOutput(os.Stderr)
		SetComponentLevels(nil)
	}()

	Debug("[rtkit] hidden %d", 1)
	Info("[rtkit] shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("DEBUG message should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "[INFO ] [rtkit] shown 2") {
		t.Errorf("INFO message missing, got: %s", out)
	}

	buf.Reset()
	SetComponentLevels(map[string]Level{"rtkit": ERROR})
	Warn("[rtkit] filtered")
	Warn("[daemon] kept")
	out = buf.String()
	if strings.Contains(out, "filtered") || !strings.Contains(out, "kept") {
		t.Errorf("component override not applied, got: %s", out)
	}
}

func TestGlobalLoggerInstance(t *testing.T) {
	if defaultLogger == nil {
		t.Fatal("defaultLogger should be initialized")
	}
}

func BenchmarkLoggerShouldLog(b *testing.B) {
	logger := New(INFO)
	for i := 0; i < b.N; i++ {
		logger.shouldLog(INFO, "[rtkit] message")
	}
}
