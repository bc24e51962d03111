package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// FindRegistrationByEndpointKey looks up a webhook registration by its public
// endpoint key. Returns store.ErrNotFound when no registration exists.
func FindRegistrationByEndpointKey(ctx context.Context, q store.Querier, endpointKey string) (*WebhookRegistration, error) {
	row, err := store.QueryRow(ctx, q,
		`SELECT id, name, description, endpoint_key, secret_key, enabled,
		        trigger_count, last_triggered_at, created_by, created_at
		 FROM _webhook_registrations WHERE endpoint_key = $1`, endpointKey)
	if err != nil {
		return nil, err
	}
	return registrationFromRow(row), nil
}

// ListRegistrations returns all registrations, newest first.
func ListRegistrations(ctx context.Context, q store.Querier) ([]*WebhookRegistration, error) {
	rows, err := store.QueryRows(ctx, q,
		`SELECT id, name, description, endpoint_key, secret_key, enabled,
		        trigger_count, last_triggered_at, created_by, created_at
		 FROM _webhook_registrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	regs := make([]*WebhookRegistration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, registrationFromRow(row))
	}
	return regs, nil
}

func registrationFromRow(row map[string]any) *WebhookRegistration {
	reg := &WebhookRegistration{
		ID:          asString(row["id"]),
		Name:        asString(row["name"]),
		Description: asString(row["description"]),
		EndpointKey: asString(row["endpoint_key"]),
		SecretKey:   asString(row["secret_key"]),
	}
	reg.Enabled, _ = row["enabled"].(bool)
	reg.TriggerCount = asInt(row["trigger_count"])
	if t, ok := row["last_triggered_at"].(time.Time); ok {
		reg.LastTriggeredAt = &t
	}
	reg.CreatedBy = asString(row["created_by"])
	if t, ok := row["created_at"].(time.Time); ok {
		reg.CreatedAt = t
	}
	return reg
}

// LoadRulesForRegistration reads the enabled rules for a registration in
// execution order: ascending sort_order, ties broken by insertion order.
func LoadRulesForRegistration(ctx context.Context, q store.Querier, webhookID string) ([]*AutomationRule, error) {
	rows, err := q.Query(ctx,
		`SELECT id, webhook_id, name, action_type, field_mappings, conditions, enabled, sort_order, created_at
		 FROM _automation_rules
		 WHERE webhook_id = $1 AND enabled
		 ORDER BY sort_order ASC, created_at ASC`, webhookID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var rules []*AutomationRule
	for rows.Next() {
		var r AutomationRule
		var mappingsJSON, conditionsJSON []byte
		if err := rows.Scan(&r.ID, &r.WebhookID, &r.Name, &r.ActionType,
			&mappingsJSON, &conditionsJSON, &r.Enabled, &r.SortOrder, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		if err := json.Unmarshal(mappingsJSON, &r.FieldMappings); err != nil {
			log.Printf("WARN: skipping rule %s (invalid field_mappings JSON): %v", r.ID, err)
			continue
		}
		if len(conditionsJSON) > 0 {
			if err := json.Unmarshal(conditionsJSON, &r.Conditions); err != nil {
				log.Printf("WARN: skipping rule %s (invalid conditions JSON): %v", r.ID, err)
				continue
			}
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
