package db

import (
	"context"
	"database/sql"
)

// principalsSchema creates the read model for provisioned principals.
// Rows are written by the provisioning process, never by the gateway.
const principalsSchema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS principals (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    display_name text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT principals_email_unique UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS principal_roles (
    principal_id uuid NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
    role text NOT NULL,
    PRIMARY KEY (principal_id, role)
);
`

func RunPrincipalsMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, principalsSchema)
	return err
}
