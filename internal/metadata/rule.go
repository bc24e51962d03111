package metadata

import "time"

// ActionType identifies the executable logic behind an automation rule.
// The set is closed: the engine refuses to start if any member has no
// registered handler.
type ActionType string

const (
	ActionCreateWorkOrder       ActionType = "create_work_order"
	ActionUpdateWorkOrderStatus ActionType = "update_work_order_status"
	ActionUpdateItemStatus      ActionType = "update_item_status"
	ActionLogActivity           ActionType = "log_activity"
	ActionTriggerOutgoing       ActionType = "trigger_outgoing_webhook"
	ActionSyncExactWorkOrder    ActionType = "sync_exact_work_order"
	ActionAssignBatchNumbers    ActionType = "assign_batch_numbers"
	ActionSyncProducts          ActionType = "sync_products"
)

// AllActionTypes lists every member of the closed enum.
var AllActionTypes = []ActionType{
	ActionCreateWorkOrder,
	ActionUpdateWorkOrderStatus,
	ActionUpdateItemStatus,
	ActionLogActivity,
	ActionTriggerOutgoing,
	ActionSyncExactWorkOrder,
	ActionAssignBatchNumbers,
	ActionSyncProducts,
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, known := range AllActionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RuleConditions gates rule execution. An empty expression always fires.
type RuleConditions struct {
	Expression string `json:"expression,omitempty"`
}

// AutomationRule is one configured action tied to a webhook registration.
// Rules execute in ascending SortOrder; ties break by creation order.
type AutomationRule struct {
	ID            string            `json:"id"`
	WebhookID     string            `json:"webhook_id"`
	Name          string            `json:"name"`
	ActionType    ActionType        `json:"action_type"`
	FieldMappings map[string]string `json:"field_mappings"`
	Conditions    RuleConditions    `json:"conditions"`
	Enabled       bool              `json:"enabled"`
	SortOrder     int               `json:"sort_order"`
	CreatedAt     time.Time         `json:"created_at"`

	// Compiled holds the lazily compiled condition program.
	Compiled any `json:"-"`
}
