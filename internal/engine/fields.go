package engine

import (
	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
)

// fieldAliases maps each action type's recognized logical field names to the
// historical key they superseded (empty = the name never changed). Rule
// configurations written against the old naming scheme keep working without a
// data migration: the current name wins, the legacy key is the fallback.
var fieldAliases = map[metadata.ActionType]map[string]string{
	metadata.ActionCreateWorkOrder: {
		"workOrderNumber":   "orderNumber",
		"productType":       "",
		"quantity":          "",
		"customer":          "",
		"externalReference": "reference",
		"startDate":         "",
		"shipDate":          "",
		"notes":             "",
	},
	metadata.ActionUpdateWorkOrderStatus: {
		"workOrderNumber": "orderNumber",
		"status":          "",
	},
	metadata.ActionUpdateItemStatus: {
		"serialNumber": "",
		"status":       "",
		"step":         "",
	},
	metadata.ActionLogActivity: {
		"action":     "",
		"entityType": "",
		"entityId":   "",
		"details":    "",
	},
	metadata.ActionTriggerOutgoing: {
		"url": "targetUrl",
	},
	metadata.ActionSyncExactWorkOrder: {
		"workOrderId":      "",
		"workOrderNumber":  "orderNumber",
		"exactOrderNumber": "exactNumber",
		"exactLink":        "",
		"status":           "",
		"readyDate":        "",
		"materialsSummary": "",
		"materialsStatus":  "",
	},
	metadata.ActionAssignBatchNumbers: {
		"workOrderId": "",
		"assignments": "batches",
	},
	metadata.ActionSyncProducts: {
		"products": "items",
	},
}

// FieldPath returns the path expression configured for a logical field on a
// rule, trying the current name first and then the legacy key. The second
// return is false when neither is configured; handlers treat that exactly
// like an absent payload value.
func FieldPath(rule *metadata.AutomationRule, name string) (string, bool) {
	if path, ok := rule.FieldMappings[name]; ok && path != "" {
		return path, true
	}
	if legacy := fieldAliases[rule.ActionType][name]; legacy != "" {
		if path, ok := rule.FieldMappings[legacy]; ok && path != "" {
			return path, true
		}
	}
	return "", false
}
