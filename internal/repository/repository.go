package repository

import (
	"context"
	"fmt"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/jmoiron/sqlx"
)

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func (r *Repos) RecentSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	out := []domain.Snapshot{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, timestamp, scenario, top_level, bottom_level, pump_running, pump_power,
		pump_total_runtime, inflow, outflow, on_battery, charge_level, confidence
		FROM snapshots ORDER BY timestamp DESC LIMIT $1`, limit)
	return out, err
}

func (r *Repos) ListAlerts(ctx context.Context, openOnly bool) ([]domain.Alert, error) {
	out := []domain.Alert{}
	q := `SELECT id, type, title, message, timestamp, is_acknowledged, priority FROM alerts`
	if openOnly {
		q += ` WHERE NOT is_acknowledged`
	}
	err := r.db.SelectContext(ctx, &out, q+` ORDER BY timestamp DESC`)
	return out, err
}

func (r *Repos) ListFaults(ctx context.Context, openOnly bool) ([]domain.Fault, error) {
	out := []domain.Fault{}
	q := `SELECT id, type, description, severity, timestamp, is_resolved FROM faults`
	if openOnly {
		q += ` WHERE NOT is_resolved`
	}
	err := r.db.SelectContext(ctx, &out, q+` ORDER BY timestamp DESC`)
	return out, err
}

// SaveState stores one snapshot row and upserts every alert and fault in
// a single transaction. Acknowledgement and resolution only move forward.
func (r *Repos) SaveState(ctx context.Context, snap *domain.Snapshot, alerts []domain.Alert, faults []domain.Fault) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `INSERT INTO snapshots(timestamp, scenario, top_level, bottom_level, pump_running, pump_power,
		pump_total_runtime, inflow, outflow, on_battery, charge_level, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		snap.Timestamp, snap.Scenario, snap.TopLevel, snap.BottomLevel, snap.PumpRunning, snap.PumpPower,
		snap.PumpTotalRuntime, snap.Inflow, snap.Outflow, snap.OnBattery, snap.ChargeLevel, snap.Confidence,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := upsertEvents(ctx, tx, alerts, faults); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveEvents upserts alerts and faults without recording a snapshot.
func (r *Repos) SaveEvents(ctx context.Context, alerts []domain.Alert, faults []domain.Fault) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEvents(ctx, tx, alerts, faults); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func upsertEvents(ctx context.Context, tx *sqlx.Tx, alerts []domain.Alert, faults []domain.Fault) error {
	for _, a := range alerts {
		_, err := tx.ExecContext(ctx, `INSERT INTO alerts(id, type, title, message, timestamp, is_acknowledged, priority)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET is_acknowledged = alerts.is_acknowledged OR EXCLUDED.is_acknowledged`,
			a.ID, a.Type, a.Title, a.Message, a.Timestamp, a.IsAcknowledged, a.Priority)
		if err != nil {
			return fmt.Errorf("upsert alert %s: %w", a.ID, err)
		}
	}

	for _, f := range faults {
		_, err := tx.ExecContext(ctx, `INSERT INTO faults(id, type, description, severity, timestamp, is_resolved)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET is_resolved = faults.is_resolved OR EXCLUDED.is_resolved`,
			f.ID, f.Type, f.Description, f.Severity, f.Timestamp, f.IsResolved)
		if err != nil {
			return fmt.Errorf("upsert fault %s: %w", f.ID, err)
		}
	}
	return nil
}
