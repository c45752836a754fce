// Command fixture-export dumps the audit log of a Recommender database as
// a replay fixture JSON file, so a real session can be replayed later.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/focusadapt/recommender/internal/logging"
	"github.com/focusadapt/recommender/internal/replay"
	"github.com/focusadapt/recommender/internal/storage"
)

func main() {
	dbPath := flag.String("db", "", "path to the recommender database")
	out := flag.String("out", "", "path to write the fixture JSON file")
	description := flag.String("description", "", "free-text description stored in the fixture")
	flag.Parse()

	if *dbPath == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/recommender.db --out path/to/fixture.json")
		os.Exit(2)
	}

	logger := logging.New("warn")
	store, err := storage.NewStore(*dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	turns, err := readAuditTurns(context.Background(), store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read audit log: %v\n", err)
		os.Exit(1)
	}

	fixture := replay.Fixture{Description: *description, Turns: turns}
	b, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal fixture: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write fixture: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d turns to %s\n", len(turns), *out)
}

// readAuditTurns reconstructs fixture turns from recommend_focus entries in
// the audit log. Entries written by other operations are skipped: the audit
// log is a diagnostic trail, not a structured replay source, so this
// reconstruction is necessarily lossy (it has no record of the outcome that
// followed each recommendation).
func readAuditTurns(ctx context.Context, store *storage.Store) ([]replay.FixtureTurn, error) {
	rows, err := store.DB().QueryContext(ctx,
		`SELECT audit_id, context_key, arm_minutes, source FROM recommender_audit WHERE operation = 'recommend_focus' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []replay.FixtureTurn
	for rows.Next() {
		var auditID, contextKey, source string
		var armMinutes sql.NullInt64
		if err := rows.Scan(&auditID, &contextKey, &armMinutes, &source); err != nil {
			return nil, err
		}
		turns = append(turns, replay.FixtureTurn{
			TurnID:         auditID,
			RecordedFocus:  int(armMinutes.Int64),
			RecordedSource: source,
		})
	}
	return turns, rows.Err()
}
