package engine

import (
	"testing"

	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
)

func TestFieldPath_CurrentName(t *testing.T) {
	rule := &metadata.AutomationRule{
		ActionType:    metadata.ActionCreateWorkOrder,
		FieldMappings: map[string]string{"workOrderNumber": "$.order.number"},
	}

	path, ok := FieldPath(rule, "workOrderNumber")
	if !ok || path != "$.order.number" {
		t.Fatalf("expected $.order.number, got %q (ok=%v)", path, ok)
	}
}

func TestFieldPath_LegacyFallback(t *testing.T) {
	rule := &metadata.AutomationRule{
		ActionType:    metadata.ActionCreateWorkOrder,
		FieldMappings: map[string]string{"orderNumber": "$.legacy.number"},
	}

	path, ok := FieldPath(rule, "workOrderNumber")
	if !ok || path != "$.legacy.number" {
		t.Fatalf("expected legacy fallback $.legacy.number, got %q (ok=%v)", path, ok)
	}
}

func TestFieldPath_CurrentWinsOverLegacy(t *testing.T) {
	rule := &metadata.AutomationRule{
		ActionType: metadata.ActionCreateWorkOrder,
		FieldMappings: map[string]string{
			"workOrderNumber": "$.new",
			"orderNumber":     "$.old",
		},
	}

	path, ok := FieldPath(rule, "workOrderNumber")
	if !ok || path != "$.new" {
		t.Fatalf("expected current mapping to win, got %q (ok=%v)", path, ok)
	}
}

func TestFieldPath_NoMapping(t *testing.T) {
	rule := &metadata.AutomationRule{
		ActionType:    metadata.ActionUpdateItemStatus,
		FieldMappings: map[string]string{},
	}

	if _, ok := FieldPath(rule, "serialNumber"); ok {
		t.Fatal("expected no mapping")
	}
}

func TestFieldPath_OutgoingWebhookLegacyURL(t *testing.T) {
	rule := &metadata.AutomationRule{
		ActionType:    metadata.ActionTriggerOutgoing,
		FieldMappings: map[string]string{"targetUrl": "$.destination"},
	}

	path, ok := FieldPath(rule, "url")
	if !ok || path != "$.destination" {
		t.Fatalf("expected targetUrl fallback, got %q (ok=%v)", path, ok)
	}
}

func TestExecutionField_TranslatesAndResolves(t *testing.T) {
	ex := &Execution{
		Rule: &metadata.AutomationRule{
			ActionType:    metadata.ActionLogActivity,
			FieldMappings: map[string]string{"action": "$.event"},
		},
		Payload: map[string]any{"event": "unit_scanned"},
	}

	v, ok := ex.Field("action")
	if !ok || v != "unit_scanned" {
		t.Fatalf("expected unit_scanned, got %v (ok=%v)", v, ok)
	}

	if _, ok := ex.Field("entityType"); ok {
		t.Fatal("expected absent for unmapped field")
	}
}

func TestExecutionFieldString_Coercion(t *testing.T) {
	ex := &Execution{
		Rule: &metadata.AutomationRule{
			ActionType: metadata.ActionUpdateWorkOrderStatus,
			FieldMappings: map[string]string{
				"workOrderNumber": "$.number",
				"status":          "$.status",
			},
		},
		Payload: map[string]any{"number": 12345.0, "status": ""},
	}

	s, ok := ex.FieldString("workOrderNumber")
	if !ok || s != "12345" {
		t.Fatalf("expected numeric coercion to 12345, got %q (ok=%v)", s, ok)
	}

	// Empty string reports absent.
	if _, ok := ex.FieldString("status"); ok {
		t.Fatal("expected absent for empty string value")
	}
}
