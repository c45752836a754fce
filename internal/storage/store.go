// Package storage implements the key/blob persistence contract: three named
// tables (model, zones, capacity) read as whole tables and written one
// context key at a time, plus a diagnostic audit log. Reads that fail are treated as an empty table (cold
// start); writes that fail are logged and returned as errors the
// Recommender downgrades rather than propagates.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommender_model (
	context_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommender_zones (
	context_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommender_capacity (
	context_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommender_audit (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	audit_id    TEXT NOT NULL,
	context_key TEXT NOT NULL,
	operation   TEXT NOT NULL,
	arm_minutes INTEGER,
	reward      REAL,
	source      TEXT,
	detail      TEXT,
	created_at  TEXT NOT NULL
);
`

// Store persists the Recommender's three logical tables (plus an audit log)
// in SQLite, one JSON blob row per context key.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

// NewStoreWithDB wraps an already-open *sql.DB (schema must already exist).
// Used by tests that want a shared in-memory handle.
func NewStoreWithDB(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, log: logger}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for tooling that needs to query tables
// this package doesn't expose a typed accessor for, such as the audit log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region model-table

// LoadModel reads the full model table. Missing table or parse errors
// degrade to an empty ModelState rather than propagating, so a storage
// outage reads as a cold start rather than a crash.
func (s *Store) LoadModel(ctx context.Context) ModelState {
	out := ModelState{}
	rows, err := s.db.QueryContext(ctx, `SELECT context_key, payload FROM recommender_model`)
	if err != nil {
		s.log.Warn().Err(err).Msg("storage: load model table failed, degrading to empty")
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			s.log.Warn().Err(err).Msg("storage: scan model row failed")
			continue
		}
		var posteriors ContextPosteriors
		if err := json.Unmarshal([]byte(payload), &posteriors); err != nil {
			s.log.Warn().Err(err).Str("context_key", key).Msg("storage: unmarshal model row failed")
			continue
		}
		out[key] = posteriors
	}
	return out
}

// SaveModelContext writes one context's posterior table. A write failure is
// logged and returned so the caller can decide whether to surface it, but it
// never blocks the in-memory recommendation already computed.
func (s *Store) SaveModelContext(ctx context.Context, key string, posteriors ContextPosteriors) error {
	payload, err := json.Marshal(posteriors)
	if err != nil {
		return fmt.Errorf("marshal model payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommender_model (context_key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(context_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("context_key", key).Msg("storage: save model context failed")
		return fmt.Errorf("save model context %s: %w", key, err)
	}
	return nil
}

// ClearModel truncates the model table.
func (s *Store) ClearModel(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recommender_model`)
	return err
}

// #endregion model-table

// #region zones-table

// LoadZones reads the full zones table, degrading to empty on failure.
func (s *Store) LoadZones(ctx context.Context) ZonesState {
	out := ZonesState{}
	rows, err := s.db.QueryContext(ctx, `SELECT context_key, payload FROM recommender_zones`)
	if err != nil {
		s.log.Warn().Err(err).Msg("storage: load zones table failed, degrading to empty")
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			s.log.Warn().Err(err).Msg("storage: scan zones row failed")
			continue
		}
		var zd ZoneData
		if err := json.Unmarshal([]byte(payload), &zd); err != nil {
			s.log.Warn().Err(err).Str("context_key", key).Msg("storage: unmarshal zones row failed")
			continue
		}
		out[key] = zd
	}
	return out
}

// SaveZoneContext writes one context's zone state.
func (s *Store) SaveZoneContext(ctx context.Context, key string, zd ZoneData) error {
	payload, err := json.Marshal(zd)
	if err != nil {
		return fmt.Errorf("marshal zone payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommender_zones (context_key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(context_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("context_key", key).Msg("storage: save zone context failed")
		return fmt.Errorf("save zone context %s: %w", key, err)
	}
	return nil
}

// ClearZones truncates the zones table.
func (s *Store) ClearZones(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recommender_zones`)
	return err
}

// #endregion zones-table

// #region capacity-table

// LoadCapacity reads the full capacity table, degrading to empty on failure.
func (s *Store) LoadCapacity(ctx context.Context) CapacityState {
	out := CapacityState{}
	rows, err := s.db.QueryContext(ctx, `SELECT context_key, payload FROM recommender_capacity`)
	if err != nil {
		s.log.Warn().Err(err).Msg("storage: load capacity table failed, degrading to empty")
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			s.log.Warn().Err(err).Msg("storage: scan capacity row failed")
			continue
		}
		var cs CapacityStats
		if err := json.Unmarshal([]byte(payload), &cs); err != nil {
			s.log.Warn().Err(err).Str("context_key", key).Msg("storage: unmarshal capacity row failed")
			continue
		}
		out[key] = cs
	}
	return out
}

// SaveCapacityContext writes one context's capacity stats.
func (s *Store) SaveCapacityContext(ctx context.Context, key string, cs CapacityStats) error {
	payload, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("marshal capacity payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommender_capacity (context_key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(context_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("context_key", key).Msg("storage: save capacity context failed")
		return fmt.Errorf("save capacity context %s: %w", key, err)
	}
	return nil
}

// ClearCapacity truncates the capacity table.
func (s *Store) ClearCapacity(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recommender_capacity`)
	return err
}

// #endregion capacity-table

// #region clear-all

// ClearAll wipes all three tables atomically. This is the user-invoked
// clear-all-data operation.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"recommender_model", "recommender_zones", "recommender_capacity"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// #endregion clear-all

// #region snapshot

// Export reads all three tables into a Snapshot for backup.
func (s *Store) Export(ctx context.Context) Snapshot {
	return Snapshot{
		SnapshotID: uuid.New().String(),
		ExportedAt: time.Now().UTC(),
		Model:      s.LoadModel(ctx),
		Zones:      s.LoadZones(ctx),
		Capacity:   s.LoadCapacity(ctx),
	}
}

// Import atomically replaces all three tables with the contents of snap.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"recommender_model", "recommender_zones", "recommender_capacity"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, posteriors := range snap.Model {
		payload, err := json.Marshal(posteriors)
		if err != nil {
			return fmt.Errorf("marshal model payload for %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommender_model (context_key, payload, updated_at) VALUES (?, ?, ?)`,
			key, string(payload), now,
		); err != nil {
			return fmt.Errorf("import model %s: %w", key, err)
		}
	}
	for key, zd := range snap.Zones {
		payload, err := json.Marshal(zd)
		if err != nil {
			return fmt.Errorf("marshal zone payload for %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommender_zones (context_key, payload, updated_at) VALUES (?, ?, ?)`,
			key, string(payload), now,
		); err != nil {
			return fmt.Errorf("import zones %s: %w", key, err)
		}
	}
	for key, cs := range snap.Capacity {
		payload, err := json.Marshal(cs)
		if err != nil {
			return fmt.Errorf("marshal capacity payload for %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommender_capacity (context_key, payload, updated_at) VALUES (?, ?, ?)`,
			key, string(payload), now,
		); err != nil {
			return fmt.Errorf("import capacity %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// #endregion snapshot

// #region audit

// AuditEntry is a single diagnostic row recording one Recommender operation.
type AuditEntry struct {
	ContextKey string
	Operation  string // "recommend_focus" | "recommend_break" | "observe_outcome" | "penalise_rejection"
	ArmMinutes int
	Reward     float64
	Source     string
	Detail     string
}

// LogAudit appends a diagnostic row. Never consulted by the core; it is read
// only by cmd/fixture-export to build replay fixtures.
func (s *Store) LogAudit(ctx context.Context, entry AuditEntry) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recommender_audit (audit_id, context_key, operation, arm_minutes, reward, source, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), entry.ContextKey, entry.Operation, entry.ArmMinutes,
		entry.Reward, entry.Source, entry.Detail, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn().Err(err).Msg("storage: audit log write failed")
	}
}

// #endregion audit
