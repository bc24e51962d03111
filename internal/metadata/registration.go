package metadata

import (
	"strings"
	"time"
)

// WebhookRegistration is one configured inbound integration point.
// The endpoint key is public (it appears in the receiver URL); the secret key
// is only ever returned in full at creation time.
type WebhookRegistration struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	EndpointKey     string     `json:"endpoint_key"`
	SecretKey       string     `json:"-"`
	Enabled         bool       `json:"enabled"`
	TriggerCount    int        `json:"trigger_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// MaskedSecret returns the secret with all but the last 4 characters hidden.
func (r *WebhookRegistration) MaskedSecret() string {
	return MaskSecret(r.SecretKey)
}

// MaskSecret hides all but the last 4 characters of a secret.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
