package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("should not appear", nil)
	logger.Info("should not appear", nil)
	logger.Warn("warning message", nil)
	logger.Error("error message", nil)

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("expected debug/info to be filtered, got output:\n%s", out)
	}
	if !strings.Contains(out, "warning message") {
		t.Error("expected warn message in output")
	}
	if !strings.Contains(out, "error message") {
		t.Error("expected error message in output")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})

	logger.Info("analyzing file", map[string]interface{}{
		"path": "main.py",
	})

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["level"] != "info" {
		t.Errorf("expected level info, got %v", parsed["level"])
	}
	if parsed["message"] != "analyzing file" {
		t.Errorf("expected message, got %v", parsed["message"])
	}
	fields, ok := parsed["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("expected fields object")
	}
	if fields["path"] != "main.py" {
		t.Errorf("expected path field, got %v", fields["path"])
	}
}

func TestHumanFormatStableFieldOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: HumanFormat, Level: DebugLevel, Output: &buf})

	logger.Info("msg", map[string]interface{}{
		"zebra": 1,
		"alpha": 2,
	})

	out := buf.String()
	alphaIdx := strings.Index(out, "alpha=")
	zebraIdx := strings.Index(out, "zebra=")
	if alphaIdx < 0 || zebraIdx < 0 {
		t.Fatalf("missing fields in output: %s", out)
	}
	if alphaIdx > zebraIdx {
		t.Errorf("expected fields sorted alphabetically: %s", out)
	}
}
