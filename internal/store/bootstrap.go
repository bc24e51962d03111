package store

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

const systemTablesSQL = `
CREATE TABLE IF NOT EXISTS _users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT[] DEFAULT '{}',
    active        BOOLEAN DEFAULT true,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id    UUID NOT NULL REFERENCES _users(id) ON DELETE CASCADE,
    token      UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token ON _refresh_tokens(token);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON _refresh_tokens(expires_at);

CREATE TABLE IF NOT EXISTS _webhook_registrations (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name              TEXT NOT NULL,
    description       TEXT,
    endpoint_key      TEXT NOT NULL UNIQUE,
    secret_key        TEXT NOT NULL,
    enabled           BOOLEAN NOT NULL DEFAULT true,
    trigger_count     INT NOT NULL DEFAULT 0,
    last_triggered_at TIMESTAMPTZ,
    created_by        UUID REFERENCES _users(id),
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_webhook_registrations_key ON _webhook_registrations(endpoint_key);

CREATE TABLE IF NOT EXISTS _automation_rules (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    webhook_id     UUID NOT NULL REFERENCES _webhook_registrations(id) ON DELETE CASCADE,
    name           TEXT NOT NULL,
    action_type    TEXT NOT NULL,
    field_mappings JSONB NOT NULL DEFAULT '{}',
    conditions     JSONB NOT NULL DEFAULT '{}',
    enabled        BOOLEAN NOT NULL DEFAULT true,
    sort_order     INT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ DEFAULT NOW(),
    updated_at     TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_automation_rules_webhook ON _automation_rules(webhook_id, sort_order);

CREATE TABLE IF NOT EXISTS _webhook_execution_logs (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    webhook_id      UUID REFERENCES _webhook_registrations(id) ON DELETE SET NULL,
    request_body    JSONB,
    request_headers JSONB,
    response_status INT NOT NULL,
    response_body   JSONB,
    executed_rules  JSONB,
    error           TEXT,
    created_at      TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_webhook_execution_logs_webhook ON _webhook_execution_logs(webhook_id, created_at);

CREATE TABLE IF NOT EXISTS work_orders (
    id                      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    order_number            TEXT NOT NULL UNIQUE,
    product_type            TEXT,
    quantity                INT NOT NULL DEFAULT 0,
    customer                TEXT,
    external_reference      TEXT,
    start_date              TEXT,
    ship_date               TEXT,
    notes                   TEXT,
    status                  TEXT NOT NULL DEFAULT 'planned',
    exact_order_number      TEXT,
    exact_link              TEXT,
    exact_status            TEXT,
    exact_ready_date        TEXT,
    materials_summary       TEXT,
    materials_status        TEXT,
    materials_issued_status TEXT NOT NULL DEFAULT 'not_issued',
    sync_status             TEXT,
    sync_error              TEXT,
    created_by              UUID REFERENCES _users(id),
    created_at              TIMESTAMPTZ DEFAULT NOW(),
    updated_at              TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS work_order_items (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    work_order_id UUID NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
    serial_number TEXT NOT NULL UNIQUE,
    position      INT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    current_step  TEXT,
    batch_number  TEXT,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_work_order_items_order ON work_order_items(work_order_id, position);

CREATE TABLE IF NOT EXISTS activity_logs (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    action      TEXT NOT NULL,
    entity_type TEXT,
    entity_id   TEXT,
    details     JSONB,
    user_id     UUID REFERENCES _users(id),
    created_at  TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    external_id TEXT NOT NULL UNIQUE,
    code        TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);
`

func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, systemTablesSQL); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM _users").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO _users (email, password_hash, roles) VALUES ($1, $2, $3)`,
		"admin@localhost", string(hashBytes), []string{"admin"},
	)
	if err != nil {
		return err
	}

	log.Println("WARNING: Default admin user created (admin@localhost / changeme). Change the password immediately.")
	return nil
}

// AnyAdminID returns the id of any active admin user, used as the system
// actor for records created by automation rules.
func (s *Store) AnyAdminID(ctx context.Context) (string, error) {
	row, err := QueryRow(ctx, s.Pool,
		`SELECT id FROM _users WHERE 'admin' = ANY(roles) AND active LIMIT 1`)
	if err != nil {
		return "", err
	}
	id, _ := row["id"].(string)
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}
