package engine

import (
	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
)

// defaultHandlers returns the closed action-type -> handler table. Every
// member of metadata.AllActionTypes must appear here; NewExecutor enforces
// that at startup.
func defaultHandlers() map[metadata.ActionType]HandlerFunc {
	return map[metadata.ActionType]HandlerFunc{
		metadata.ActionCreateWorkOrder:       handleCreateWorkOrder,
		metadata.ActionUpdateWorkOrderStatus: handleUpdateWorkOrderStatus,
		metadata.ActionUpdateItemStatus:      handleUpdateItemStatus,
		metadata.ActionLogActivity:           handleLogActivity,
		metadata.ActionTriggerOutgoing:       handleTriggerOutgoingWebhook,
		metadata.ActionSyncExactWorkOrder:    handleSyncExactWorkOrder,
		metadata.ActionAssignBatchNumbers:    handleAssignBatchNumbers,
		metadata.ActionSyncProducts:          handleSyncProducts,
	}
}
