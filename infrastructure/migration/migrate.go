package migration

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
)

// statements are idempotent and run in order on every startup.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS ad_accounts (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		status        INTEGER NOT NULL DEFAULT 0,
		currency      TEXT NOT NULL DEFAULT '',
		timezone      TEXT NOT NULL DEFAULT '',
		business_id   TEXT,
		business_name TEXT,
		amount_spent  DOUBLE PRECISION NOT NULL DEFAULT 0,
		balance       DOUBLE PRECISION NOT NULL DEFAULT 0,
		spend_cap     DOUBLE PRECISION,
		capabilities  JSONB,
		created_time  TIMESTAMPTZ,
		last_sync_at  TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS campaigns (
		id                TEXT PRIMARY KEY,
		account_id        TEXT NOT NULL DEFAULT '',
		name              TEXT NOT NULL DEFAULT '',
		objective         TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL DEFAULT '',
		configured_status TEXT NOT NULL DEFAULT '',
		effective_status  TEXT NOT NULL DEFAULT '',
		daily_budget      DOUBLE PRECISION,
		lifetime_budget   DOUBLE PRECISION,
		budget_remaining  DOUBLE PRECISION,
		bid_strategy      TEXT,
		optimization_goal TEXT,
		spend_cap         DOUBLE PRECISION,
		start_time        TIMESTAMPTZ,
		stop_time         TIMESTAMPTZ,
		issues            JSONB,
		created_time      TIMESTAMPTZ,
		updated_time      TIMESTAMPTZ,
		last_sync_at      TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_campaigns_account_id ON campaigns (account_id)`,

	`CREATE TABLE IF NOT EXISTS daily_insights (
		entity_type          TEXT NOT NULL,
		entity_id            TEXT NOT NULL,
		entity_name          TEXT NOT NULL DEFAULT '',
		account_id           TEXT NOT NULL DEFAULT '',
		date_start           DATE NOT NULL,
		date_stop            DATE NOT NULL,
		spend                DOUBLE PRECISION NOT NULL DEFAULT 0,
		impressions          BIGINT NOT NULL DEFAULT 0,
		clicks               BIGINT NOT NULL DEFAULT 0,
		reach                BIGINT NOT NULL DEFAULT 0,
		frequency            DOUBLE PRECISION NOT NULL DEFAULT 0,
		ctr                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		cpc                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		cpm                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		cpp                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		actions              JSONB,
		action_values        JSONB,
		conversions          JSONB,
		cost_per_action_type JSONB,
		video                JSONB,
		last_sync_at         TIMESTAMPTZ,
		PRIMARY KEY (entity_type, entity_id, date_start, date_stop)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_daily_insights_account_date
		ON daily_insights (account_id, date_start)`,
}

// Run applies the schema inside a single transaction.
func Run(ctx context.Context, conn *postgres.Connection) error {
	err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, statement := range statements {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return errors.Wrap(err, "applying schema statement")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("statements", len(statements)).Info("migration: schema is up to date")
	return nil
}
