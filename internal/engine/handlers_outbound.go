package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const outboundMaxAttempts = 3

// Package-level knobs so tests can shrink the delays.
var (
	outboundClient          = &http.Client{}
	outboundAttemptTimeout  = 10 * time.Second
	outboundInitialInterval = 1 * time.Second
)

// handleTriggerOutgoingWebhook relays the original inbound payload to a
// configured destination. Up to 3 attempts with exponential backoff (1s, 2s)
// between them; each attempt is cancelled after 10s so one slow receiver
// cannot stall the whole ingestion call.
func handleTriggerOutgoingWebhook(ctx context.Context, ex *Execution) (map[string]any, error) {
	url, ok := ex.FieldString("url")
	if !ok {
		return nil, fmt.Errorf("destination url missing from payload")
	}

	body, err := json.Marshal(ex.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	attempts := 0
	var lastStatus int

	operation := func() error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, outboundAttemptTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := outboundClient.Do(req)
		if err != nil {
			return fmt.Errorf("http call: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

		lastStatus = resp.StatusCode
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = outboundInitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	err = backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, outboundMaxAttempts-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("all %d attempts failed: %v", attempts, err)
	}

	return map[string]any{
		"url":      url,
		"status":   lastStatus,
		"attempts": attempts,
	}, nil
}
