package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the history tables if they do not exist.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                 BIGSERIAL PRIMARY KEY,
	timestamp          TIMESTAMPTZ NOT NULL,
	scenario           TEXT NOT NULL,
	top_level          DOUBLE PRECISION NOT NULL,
	bottom_level       DOUBLE PRECISION NOT NULL,
	pump_running       BOOLEAN NOT NULL,
	pump_power         DOUBLE PRECISION NOT NULL,
	pump_total_runtime DOUBLE PRECISION NOT NULL,
	inflow             DOUBLE PRECISION NOT NULL,
	outflow            DOUBLE PRECISION NOT NULL,
	on_battery         BOOLEAN NOT NULL,
	charge_level       DOUBLE PRECISION NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id              TEXT PRIMARY KEY,
	type            TEXT NOT NULL,
	title           TEXT NOT NULL,
	message         TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL,
	is_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
	priority        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS faults (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	description TEXT NOT NULL,
	severity    TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	is_resolved BOOLEAN NOT NULL DEFAULT FALSE
);
`
