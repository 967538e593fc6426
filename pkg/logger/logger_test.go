package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsAreCarried(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf, Level: zerolog.DebugLevel})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithAffiliateID(ctx, "7")
	logg.Info(ctx, "order.placed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["affiliate_id"] != "7" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["service"] != "api" || entry["message"] != "order.placed" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Error(context.Background(), "billing.failed", errors.New("boom"))
	if !strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("expected stack in error log: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Fatalf("expected error field: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty should default to info")
	}
	if ParseLevel("DEBUG") != zerolog.DebugLevel {
		t.Fatal("expected debug")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("unknown should default to info")
	}
}
