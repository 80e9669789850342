package obs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEmit(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	Emit(map[string]any{"msg": "hello", "status": 200})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output not valid JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "hello" || entry["status"] != float64(200) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestEmitUnmarshalableEntry(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	Emit(map[string]any{"bad": make(chan int)})

	if !strings.Contains(buf.String(), "log marshal failed") {
		t.Fatalf("expected fallback line, got %q", buf.String())
	}
}
