package admin

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ash-vash90/production-companion-19-sub004/internal/auth"
	"github.com/ash-vash90/production-companion-19-sub004/internal/engine"
	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

const maxWebhookNameLen = 100

// Handler serves the admin-gated webhook registration endpoints.
type Handler struct {
	store   *store.Store
	limiter *CallerLimiter
}

func NewHandler(s *store.Store, limiter *CallerLimiter) *Handler {
	return &Handler{store: s, limiter: limiter}
}

// webhookResponse is the registration as exposed to admins: the secret is
// always masked outside the creation response.
type webhookResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	EndpointKey     string     `json:"endpoint_key"`
	SecretKey       string     `json:"secret_key"`
	Enabled         bool       `json:"enabled"`
	TriggerCount    int        `json:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toWebhookResponse(reg *metadata.WebhookRegistration) webhookResponse {
	return webhookResponse{
		ID:              reg.ID,
		Name:            reg.Name,
		Description:     reg.Description,
		EndpointKey:     reg.EndpointKey,
		SecretKey:       reg.MaskedSecret(),
		Enabled:         reg.Enabled,
		TriggerCount:    reg.TriggerCount,
		LastTriggeredAt: reg.LastTriggeredAt,
		CreatedAt:       reg.CreatedAt,
	}
}

// CreateWebhook handles POST /create-webhook. The full secret is returned
// exactly once, in this response; every later read is masked.
func (h *Handler) CreateWebhook(c *fiber.Ctx) error {
	user := auth.GetUser(c)
	if user == nil {
		return engine.UnauthorizedError("Missing auth token")
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid request body")
	}
	if body.Name == "" || len(body.Name) > maxWebhookNameLen {
		return engine.BadRequestError(fmt.Sprintf("Name is required and must be at most %d characters", maxWebhookNameLen))
	}

	// Only a valid request consumes creation budget.
	ok, retryAfter, remaining := h.limiter.Allow(user.ID)
	c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	if !ok {
		seconds := int(math.Ceil(retryAfter.Seconds()))
		c.Set("Retry-After", fmt.Sprintf("%d", seconds))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(retryAfter).Unix()))
		return engine.RateLimitedError("Webhook creation limit reached, try again later")
	}

	secret, err := randomHex(32)
	if err != nil {
		return engine.InternalError("Failed to generate credentials")
	}
	endpointKey, err := randomHex(16)
	if err != nil {
		return engine.InternalError("Failed to generate credentials")
	}

	ctx := c.Context()
	row, err := store.QueryRow(ctx, h.store.Pool,
		`INSERT INTO _webhook_registrations (name, description, endpoint_key, secret_key, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		body.Name, body.Description, endpointKey, secret, user.ID)
	if err != nil {
		log.Printf("ERROR: insert webhook registration: %v", err)
		return engine.InternalError("Failed to create webhook")
	}

	id, _ := row["id"].(string)
	createdAt, _ := row["created_at"].(time.Time)

	details, _ := json.Marshal(map[string]any{"name": body.Name, "endpoint_key": endpointKey})
	if _, err := store.Exec(ctx, h.store.Pool,
		`INSERT INTO activity_logs (action, entity_type, entity_id, details, user_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		"webhook_created", "webhook_registration", id, details, user.ID); err != nil {
		log.Printf("ERROR: log webhook creation: %v", err)
	}

	reg := &metadata.WebhookRegistration{
		ID:          id,
		Name:        body.Name,
		Description: body.Description,
		EndpointKey: endpointKey,
		SecretKey:   secret,
		Enabled:     true,
		CreatedAt:   createdAt,
	}
	return c.JSON(fiber.Map{
		"webhook": toWebhookResponse(reg),
		"secret":  secret,
		"message": "Store this secret now; it will not be shown again.",
	})
}

// ListWebhooks handles GET /webhooks with masked secrets.
func (h *Handler) ListWebhooks(c *fiber.Ctx) error {
	regs, err := metadata.ListRegistrations(c.Context(), h.store.Pool)
	if err != nil {
		log.Printf("ERROR: list webhook registrations: %v", err)
		return engine.InternalError("Failed to list webhooks")
	}
	out := make([]webhookResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toWebhookResponse(reg))
	}
	return c.JSON(fiber.Map{"data": out})
}

// RegisterAdminRoutes mounts the registration service behind auth + admin middleware.
func RegisterAdminRoutes(app *fiber.App, h *Handler, authMW, adminMW fiber.Handler) {
	app.Post("/create-webhook", authMW, adminMW, h.CreateWebhook)
	app.Get("/webhooks", authMW, adminMW, h.ListWebhooks)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
