package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestAuditLine(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = prev }()

	ctx := IntoContext(context.Background(), Fields{RequestID: "req-1", TenantID: 3})
	Audit(ctx, "admin", "products.update", 10, 11)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["actor"] != "admin" || line["action"] != "products.update" {
		t.Errorf("unexpected actor/action: %v", line)
	}
	if line["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", line["request_id"])
	}
	targets, ok := line["targets"].([]interface{})
	if !ok || len(targets) != 2 {
		t.Fatalf("targets = %v, want 2 ids", line["targets"])
	}
}

func TestSetLevelFallback(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetLevel("nonsense")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
	SetLevel("DEBUG")
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
}
