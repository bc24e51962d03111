package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// handleLogActivity appends one audit record. When no details path is
// configured, the entire inbound payload is stored.
func handleLogActivity(ctx context.Context, ex *Execution) (map[string]any, error) {
	action, ok := ex.FieldString("action")
	if !ok {
		action = "webhook_event"
	}
	entityType, _ := ex.FieldString("entityType")
	entityID, _ := ex.FieldString("entityId")

	details := ex.Payload
	if v, ok := ex.Field("details"); ok {
		details = v
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal details: %w", err)
	}

	if _, err := store.Exec(ctx, ex.Store.Pool,
		`INSERT INTO activity_logs (action, entity_type, entity_id, details)
		 VALUES ($1, $2, $3, $4)`,
		action, entityType, entityID, detailsJSON); err != nil {
		return nil, err
	}

	return map[string]any{"action": action}, nil
}
