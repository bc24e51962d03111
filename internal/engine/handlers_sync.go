package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// handleSyncExactWorkOrder upserts denormalized Exact sync fields onto the
// matching work order. On failure the order's sync state is separately marked
// failed, so the operator can see which orders fell out of sync.
func handleSyncExactWorkOrder(ctx context.Context, ex *Execution) (map[string]any, error) {
	workOrderID, hasID := ex.FieldString("workOrderId")
	orderNumber, hasNumber := ex.FieldString("workOrderNumber")
	if !hasID && !hasNumber {
		return nil, fmt.Errorf("work order id or order number required")
	}

	set := "sync_status = 'synced', sync_error = NULL, updated_at = NOW()"
	args := []any{}
	n := 0
	appendSet := func(column, field string) {
		if v, ok := ex.FieldString(field); ok {
			n++
			args = append(args, v)
			set += fmt.Sprintf(", %s = $%d", column, n)
		}
	}
	appendSet("exact_order_number", "exactOrderNumber")
	appendSet("exact_link", "exactLink")
	appendSet("exact_status", "status")
	appendSet("exact_ready_date", "readyDate")
	appendSet("materials_summary", "materialsSummary")
	appendSet("materials_status", "materialsStatus")

	keyColumn, key := "id", workOrderID
	if !hasID {
		keyColumn, key = "order_number", orderNumber
	}
	args = append(args, key)

	affected, err := store.Exec(ctx, ex.Store.Pool,
		fmt.Sprintf("UPDATE work_orders SET %s WHERE %s = $%d", set, keyColumn, n+1), args...)
	if err == nil && affected == 0 {
		err = fmt.Errorf("work order %s not found", key)
	}
	if err != nil {
		markSyncFailed(ctx, ex.Store, keyColumn, key, err)
		return nil, err
	}

	return map[string]any{"work_order": key, "sync_status": "synced"}, nil
}

// markSyncFailed is best-effort: a failure to record the failure is only logged.
func markSyncFailed(ctx context.Context, s *store.Store, column, key string, cause error) {
	if _, err := store.Exec(ctx, s.Pool,
		fmt.Sprintf(`UPDATE work_orders SET sync_status = 'failed', sync_error = $1, updated_at = NOW() WHERE %s = $2`, column),
		cause.Error(), key); err != nil {
		log.Printf("ERROR: mark sync failed for %s: %v", key, err)
	}
}

// handleSyncProducts upserts catalog entries keyed by external id. Entries
// missing required fields are counted as failed without stopping the batch;
// a partial batch is never a hard error.
func handleSyncProducts(ctx context.Context, ex *Execution) (map[string]any, error) {
	raw, ok := ex.Field("products")
	if !ok {
		return nil, fmt.Errorf("products missing from payload")
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("products is not a list")
	}

	synced := 0
	failed := 0
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			failed++
			continue
		}
		externalID, _ := entry["externalId"].(string)
		code, _ := entry["code"].(string)
		name, _ := entry["name"].(string)
		if externalID == "" || code == "" || name == "" {
			failed++
			continue
		}
		description, _ := entry["description"].(string)

		_, err := store.Exec(ctx, ex.Store.Pool,
			`INSERT INTO products (external_id, code, name, description)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (external_id) DO UPDATE
			 SET code = EXCLUDED.code, name = EXCLUDED.name,
			     description = EXCLUDED.description, updated_at = NOW()`,
			externalID, code, name, description)
		if err != nil {
			log.Printf("WARN: sync product %s: %v", externalID, err)
			failed++
			continue
		}
		synced++
	}

	return map[string]any{"synced": synced, "failed": failed}, nil
}
