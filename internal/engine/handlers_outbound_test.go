package engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
)

func outboundRule(url string) *Execution {
	return &Execution{
		Rule: &metadata.AutomationRule{
			Name:          "relay",
			ActionType:    metadata.ActionTriggerOutgoing,
			FieldMappings: map[string]string{"url": "$.destination"},
			Enabled:       true,
		},
		Payload: map[string]any{"destination": url, "event": "unit_scanned"},
	}
}

func shrinkBackoff(t *testing.T) {
	t.Helper()
	orig := outboundInitialInterval
	outboundInitialInterval = time.Millisecond
	t.Cleanup(func() { outboundInitialInterval = orig })
}

func TestTriggerOutgoing_SucceedsOnThirdAttempt(t *testing.T) {
	shrinkBackoff(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result, err := handleTriggerOutgoingWebhook(context.Background(), outboundRule(srv.URL))
	if err != nil {
		t.Fatalf("expected success on 3rd attempt, got %v", err)
	}
	if result["attempts"] != 3 {
		t.Fatalf("expected attempts=3, got %v", result["attempts"])
	}
	if result["status"] != http.StatusOK {
		t.Fatalf("expected status 200, got %v", result["status"])
	}
}

func TestTriggerOutgoing_ExhaustsAttempts(t *testing.T) {
	shrinkBackoff(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := handleTriggerOutgoingWebhook(context.Background(), outboundRule(srv.URL))
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
	if !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Fatalf("expected exhausted-attempts error, got %v", err)
	}
}

func TestTriggerOutgoing_MissingURL(t *testing.T) {
	ex := &Execution{
		Rule: &metadata.AutomationRule{
			ActionType:    metadata.ActionTriggerOutgoing,
			FieldMappings: map[string]string{},
		},
		Payload: map[string]any{},
	}

	if _, err := handleTriggerOutgoingWebhook(context.Background(), ex); err == nil {
		t.Fatal("expected error for missing destination url")
	}
}

func TestTriggerOutgoing_RelaysOriginalPayload(t *testing.T) {
	shrinkBackoff(t)

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := handleTriggerOutgoingWebhook(context.Background(), outboundRule(srv.URL)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotBody, `"event":"unit_scanned"`) {
		t.Fatalf("expected original payload relayed, got %s", gotBody)
	}
}
