package metadata

import (
	"encoding/json"
	"testing"
)

func TestActionTypeValid(t *testing.T) {
	for _, action := range AllActionTypes {
		if !action.Valid() {
			t.Fatalf("%s should be valid", action)
		}
	}
	if ActionType("delete_everything").Valid() {
		t.Fatal("unknown action type should be invalid")
	}
	if ActionType("").Valid() {
		t.Fatal("empty action type should be invalid")
	}
}

func TestAutomationRuleJSON(t *testing.T) {
	raw := `{
		"id": "4b8c2f10-9c1d-4e2a-8f3b-1a2b3c4d5e6f",
		"name": "Create order on scan",
		"action_type": "create_work_order",
		"field_mappings": {"workOrderNumber": "$.order.number"},
		"conditions": {"expression": "payload.event == \"order_created\""},
		"enabled": true,
		"sort_order": 2
	}`

	var rule AutomationRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rule.ActionType != ActionCreateWorkOrder {
		t.Fatalf("expected create_work_order, got %s", rule.ActionType)
	}
	if rule.FieldMappings["workOrderNumber"] != "$.order.number" {
		t.Fatalf("unexpected field mappings: %v", rule.FieldMappings)
	}
	if rule.Conditions.Expression == "" {
		t.Fatal("expected condition expression to round-trip")
	}
	if rule.SortOrder != 2 || !rule.Enabled {
		t.Fatalf("unexpected rule fields: %+v", rule)
	}
}

func TestAutomationRuleJSON_EmptyConditions(t *testing.T) {
	var rule AutomationRule
	if err := json.Unmarshal([]byte(`{"action_type": "log_activity", "conditions": {}}`), &rule); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rule.Conditions.Expression != "" {
		t.Fatalf("expected empty expression, got %q", rule.Conditions.Expression)
	}
}
