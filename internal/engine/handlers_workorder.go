package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// serialPrefix picks the serial-number prefix for a product type.
func serialPrefix(productType string) string {
	switch productType {
	case "stream":
		return "SC"
	case "module":
		return "PM"
	default:
		return "SN"
	}
}

// handleCreateWorkOrder inserts one work order plus its serialized unit
// records. The whole effect runs in a single transaction so a failed item
// insert never leaves an orphaned parent order.
func handleCreateWorkOrder(ctx context.Context, ex *Execution) (map[string]any, error) {
	now := time.Now()

	orderNumber, ok := ex.FieldString("workOrderNumber")
	if !ok {
		orderNumber = fmt.Sprintf("WO-%d", now.UnixMilli())
	}
	productType, _ := ex.FieldString("productType")
	quantity, _ := ex.FieldInt("quantity")
	if quantity < 0 {
		return nil, fmt.Errorf("invalid quantity %d", quantity)
	}
	customer, _ := ex.FieldString("customer")
	externalRef, _ := ex.FieldString("externalReference")
	startDate, _ := ex.FieldString("startDate")
	shipDate, _ := ex.FieldString("shipDate")
	notes, _ := ex.FieldString("notes")

	actorID, err := ex.Store.AnyAdminID(ctx)
	if err != nil {
		return nil, fmt.Errorf("no admin user available to own the work order")
	}

	var workOrderID string
	err = ex.Store.WithTx(ctx, func(tx pgx.Tx) error {
		row, err := store.QueryRow(ctx, tx,
			`INSERT INTO work_orders (order_number, product_type, quantity, customer,
			        external_reference, start_date, ship_date, notes, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			orderNumber, productType, quantity, customer,
			externalRef, startDate, shipDate, notes, actorID)
		if err != nil {
			return fmt.Errorf("insert work order: %w", err)
		}
		workOrderID, _ = row["id"].(string)

		prefix := serialPrefix(productType)
		for i := 1; i <= quantity; i++ {
			serial := fmt.Sprintf("%s%d%03d", prefix, now.UnixMilli(), i)
			if _, err := store.Exec(ctx, tx,
				`INSERT INTO work_order_items (work_order_id, serial_number, position)
				 VALUES ($1, $2, $3)`,
				workOrderID, serial, i); err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
		}

		details, _ := json.Marshal(map[string]any{
			"order_number": orderNumber,
			"quantity":     quantity,
			"rule":         ex.Rule.Name,
		})
		if _, err := store.Exec(ctx, tx,
			`INSERT INTO activity_logs (action, entity_type, entity_id, details, user_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			"work_order_created", "work_order", workOrderID, details, actorID); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"work_order_id": workOrderID,
		"order_number":  orderNumber,
		"items_created": quantity,
	}, nil
}

// handleUpdateWorkOrderStatus updates exactly one work order matched by its
// order number.
func handleUpdateWorkOrderStatus(ctx context.Context, ex *Execution) (map[string]any, error) {
	orderNumber, ok := ex.FieldString("workOrderNumber")
	if !ok {
		return nil, fmt.Errorf("work order number missing from payload")
	}
	status, ok := ex.FieldString("status")
	if !ok {
		return nil, fmt.Errorf("status missing from payload")
	}

	n, err := store.Exec(ctx, ex.Store.Pool,
		`UPDATE work_orders SET status = $1, updated_at = NOW() WHERE order_number = $2`,
		status, orderNumber)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("work order %s not found", orderNumber)
	}

	return map[string]any{"order_number": orderNumber, "status": status}, nil
}

// handleUpdateItemStatus updates one unit record matched by serial number.
// Status and step are each optional, but the update set must not be empty.
func handleUpdateItemStatus(ctx context.Context, ex *Execution) (map[string]any, error) {
	serial, ok := ex.FieldString("serialNumber")
	if !ok {
		return nil, fmt.Errorf("serial number missing from payload")
	}

	set := ""
	args := []any{}
	n := 0
	if status, ok := ex.FieldString("status"); ok {
		n++
		args = append(args, status)
		set = fmt.Sprintf("status = $%d", n)
	}
	if step, ok := ex.FieldString("step"); ok {
		n++
		args = append(args, step)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("current_step = $%d", n)
	}
	if set == "" {
		return nil, fmt.Errorf("nothing to update for serial %s", serial)
	}

	args = append(args, serial)
	affected, err := store.Exec(ctx, ex.Store.Pool,
		fmt.Sprintf(`UPDATE work_order_items SET %s, updated_at = NOW() WHERE serial_number = $%d`, set, n+1),
		args...)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("item %s not found", serial)
	}

	return map[string]any{"serial_number": serial, "updated": affected}, nil
}

// handleAssignBatchNumbers applies batch numbers to unit records entry by
// entry, then recomputes the order's aggregate materials-issued status from
// the resulting counts. Individual entry failures are counted but do not
// stop the loop; the loop and the aggregate update share one transaction.
func handleAssignBatchNumbers(ctx context.Context, ex *Execution) (map[string]any, error) {
	workOrderID, ok := ex.FieldString("workOrderId")
	if !ok {
		return nil, fmt.Errorf("work order id missing from payload")
	}
	raw, ok := ex.Field("assignments")
	if !ok {
		return nil, fmt.Errorf("assignments missing from payload")
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("assignments is not a list")
	}

	assigned := 0
	failed := 0
	var issuedStatus string

	err := ex.Store.WithTx(ctx, func(tx pgx.Tx) error {
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				failed++
				continue
			}
			batch, _ := entry["batchNumber"].(string)
			if batch == "" {
				failed++
				continue
			}

			// Each entry runs under a savepoint: a statement error would
			// otherwise abort the surrounding transaction and take the rest
			// of the batch down with it.
			sp, err := tx.Begin(ctx)
			if err != nil {
				return fmt.Errorf("begin savepoint: %w", err)
			}

			var n int64
			if serial, _ := entry["serialNumber"].(string); serial != "" {
				n, err = store.Exec(ctx, sp,
					`UPDATE work_order_items SET batch_number = $1, updated_at = NOW()
					 WHERE work_order_id = $2 AND serial_number = $3`,
					batch, workOrderID, serial)
			} else if pos, okPos := toInt(entry["position"]); okPos {
				n, err = store.Exec(ctx, sp,
					`UPDATE work_order_items SET batch_number = $1, updated_at = NOW()
					 WHERE work_order_id = $2 AND position = $3`,
					batch, workOrderID, pos)
			} else {
				_ = sp.Rollback(ctx)
				failed++
				continue
			}
			if err != nil || n == 0 {
				_ = sp.Rollback(ctx)
				failed++
				continue
			}
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("release savepoint: %w", err)
			}
			assigned++
		}

		row, err := store.QueryRow(ctx, tx,
			`SELECT COUNT(*) AS total,
			        COUNT(*) FILTER (WHERE batch_number IS NOT NULL) AS with_batch
			 FROM work_order_items WHERE work_order_id = $1`, workOrderID)
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		total := toInt64(row["total"])
		withBatch := toInt64(row["with_batch"])

		switch {
		case withBatch == 0:
			issuedStatus = "not_issued"
		case withBatch < total:
			issuedStatus = "partial"
		default:
			issuedStatus = "complete"
		}

		if _, err := store.Exec(ctx, tx,
			`UPDATE work_orders SET materials_issued_status = $1, updated_at = NOW() WHERE id = $2`,
			issuedStatus, workOrderID); err != nil {
			return fmt.Errorf("update materials status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"assigned":                assigned,
		"failed":                  failed,
		"materials_issued_status": issuedStatus,
	}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
