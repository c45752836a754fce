// Command backup exports or imports a full Recommender snapshot (model,
// zones and capacity state) to or from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/focusadapt/recommender/internal/logging"
	"github.com/focusadapt/recommender/internal/storage"
)

func main() {
	dbPath := flag.String("db", "", "path to the recommender database")
	out := flag.String("out", "", "export: path to write the snapshot JSON file")
	in := flag.String("in", "", "import: path to read the snapshot JSON file from")
	flag.Parse()

	if *dbPath == "" || (*out == "" && *in == "") {
		fmt.Fprintln(os.Stderr, "usage: backup --db path/to/recommender.db (--out path/to/snapshot.json | --in path/to/snapshot.json)")
		os.Exit(2)
	}

	logger := logging.New("warn")
	store, err := storage.NewStore(*dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *out != "" {
		snap := store.Export(ctx)
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("exported snapshot %s to %s\n", snap.SnapshotID, *out)
		return
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		os.Exit(1)
	}
	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "parse snapshot: %v\n", err)
		os.Exit(1)
	}
	if err := store.Import(ctx, snap); err != nil {
		fmt.Fprintf(os.Stderr, "import snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported snapshot %s\n", snap.SnapshotID)
}
