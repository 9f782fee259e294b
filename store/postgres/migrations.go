package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Steward store (PostgreSQL).
var Migrations = migrate.NewGroup("steward")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_organizations",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_organizations (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    slug            TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(slug)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_organizations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_projects",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_projects (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL REFERENCES steward_organizations(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    key             TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(organization_id, key)
);

CREATE INDEX IF NOT EXISTS idx_steward_projects_org ON steward_projects (organization_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_projects`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20240601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_memberships (
    id              TEXT PRIMARY KEY,
    scope           TEXT NOT NULL,
    resource_id     TEXT NOT NULL DEFAULT '',
    subject_id      TEXT NOT NULL,
    role            TEXT NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT true,
    granted_by      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(scope, resource_id, subject_id)
);

CREATE INDEX IF NOT EXISTS idx_steward_memberships_lookup
    ON steward_memberships (scope, resource_id, subject_id, is_active);
CREATE INDEX IF NOT EXISTS idx_steward_memberships_subject
    ON steward_memberships (subject_id, scope, role, is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20240601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_decision_logs (
    id              TEXT PRIMARY KEY,
    scope           TEXT NOT NULL,
    subject_id      TEXT NOT NULL,
    resource_id     TEXT NOT NULL DEFAULT '',
    min_role        TEXT NOT NULL DEFAULT '',
    held_role       TEXT NOT NULL DEFAULT '',
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_steward_decision_logs_subject
    ON steward_decision_logs (subject_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_steward_decision_logs_resource
    ON steward_decision_logs (scope, resource_id);
CREATE INDEX IF NOT EXISTS idx_steward_decision_logs_created
    ON steward_decision_logs (created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_decision_logs`)
				return err
			},
		},
	)
}
