package engine

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// SecretHeader carries the shared secret on ingestion calls.
const SecretHeader = "X-Webhook-Secret"

// IngestResult is the aggregate result returned to the caller and persisted
// to the execution log.
type IngestResult struct {
	Success  bool          `json:"success"`
	Executed int           `json:"executed"`
	Errors   int           `json:"errors"`
	Details  IngestDetails `json:"details"`
}

type IngestDetails struct {
	Executed []ExecutedRule `json:"executed"`
	Errors   []string       `json:"errors"`
}

// WebhookHandler serves the inbound webhook receiver endpoint.
type WebhookHandler struct {
	store    *store.Store
	executor *Executor
}

func NewWebhookHandler(s *store.Store) *WebhookHandler {
	return &WebhookHandler{store: s, executor: NewExecutor(s)}
}

// Receive handles POST /webhook-receiver/:endpointKey.
//
// Per-call state machine: Resolve -> Authenticate -> Parse -> Execute ->
// Persist -> Respond. Authentication failures against a known registration
// are still audit-logged; caller errors that never reach the registration
// lookup are not.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	ctx := c.Context()

	endpointKey := c.Params("endpointKey")
	if endpointKey == "" {
		return BadRequestError("Missing endpoint key")
	}

	reg, err := metadata.FindRegistrationByEndpointKey(ctx, h.store.Pool, endpointKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("Unknown webhook endpoint")
		}
		log.Printf("ERROR: webhook registration lookup: %v", err)
		return InternalError("Webhook lookup failed")
	}

	if !reg.Enabled {
		h.writeExecutionLog(ctx, reg.ID, c.Body(), c.GetReqHeaders(), 403, nil, nil, "webhook disabled")
		return ForbiddenError("Webhook is disabled")
	}

	secret := c.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(reg.SecretKey)) != 1 {
		h.writeExecutionLog(ctx, reg.ID, c.Body(), c.GetReqHeaders(), 401, nil, nil, "invalid webhook secret")
		return UnauthorizedError("Invalid webhook secret")
	}

	var payload any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return BadRequestError("Invalid JSON body")
	}

	rules, err := metadata.LoadRulesForRegistration(ctx, h.store.Pool, reg.ID)
	if err != nil {
		log.Printf("ERROR: load rules for webhook %s: %v", reg.ID, err)
		h.writeExecutionLog(ctx, reg.ID, c.Body(), c.GetReqHeaders(), 500, nil, nil, err.Error())
		return InternalError("Failed to load automation rules")
	}

	executed, ruleErrs := h.executor.Execute(ctx, rules, payload)

	result := IngestResult{
		Success:  len(ruleErrs) == 0,
		Executed: len(executed),
		Errors:   len(ruleErrs),
		Details: IngestDetails{
			Executed: executed,
			Errors:   ruleErrs,
		},
	}
	status := fiber.StatusOK
	if len(ruleErrs) > 0 {
		status = fiber.StatusMultiStatus
	}

	if _, err := store.Exec(ctx, h.store.Pool,
		`UPDATE _webhook_registrations
		 SET trigger_count = trigger_count + 1, last_triggered_at = NOW(), updated_at = NOW()
		 WHERE id = $1`, reg.ID); err != nil {
		log.Printf("ERROR: update webhook stats for %s: %v", reg.ID, err)
	}
	h.writeExecutionLog(ctx, reg.ID, c.Body(), c.GetReqHeaders(), status, result, executed, "")

	return c.Status(status).JSON(result)
}

// writeExecutionLog appends one audit row per ingestion attempt. Failures
// here never fail the call.
func (h *WebhookHandler) writeExecutionLog(ctx context.Context, webhookID string, body []byte,
	headers map[string][]string, status int, response any, executed []ExecutedRule, errMsg string) {

	if !json.Valid(body) {
		body, _ = json.Marshal(string(body))
	}
	headersJSON, _ := json.Marshal(headers)
	var responseJSON []byte
	if response != nil {
		responseJSON, _ = json.Marshal(response)
	}
	var executedJSON []byte
	if executed != nil {
		executedJSON, _ = json.Marshal(executed)
	}
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	if _, err := store.Exec(ctx, h.store.Pool,
		`INSERT INTO _webhook_execution_logs
		 (webhook_id, request_body, request_headers, response_status, response_body, executed_rules, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		webhookID, body, headersJSON, status, responseJSON, executedJSON, errVal); err != nil {
		log.Printf("ERROR: write webhook execution log for %s: %v", webhookID, err)
	}
}

// RegisterWebhookRoutes mounts the public receiver endpoint.
func RegisterWebhookRoutes(app *fiber.App, h *WebhookHandler) {
	app.Post("/webhook-receiver/:endpointKey", h.Receive)
}
