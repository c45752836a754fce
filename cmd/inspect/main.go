// Command inspect dumps model, zone or capacity state from a Recommender
// database, as a table or as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/focusadapt/recommender/internal/logging"
	"github.com/focusadapt/recommender/internal/storage"
)

func main() {
	dbPath := flag.String("db", "", "path to the recommender database")
	table := flag.String("table", "model", "table to inspect: model|zones|capacity")
	key := flag.String("key", "", "filter to a single context key")
	jsonOut := flag.Bool("json", false, "output as JSON instead of a table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/recommender.db [--table model|zones|capacity] [--key taskType|energy] [--json]")
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

	switch *table {
	case "model":
		dump(store.LoadModel(ctx), *key, *jsonOut)
	case "zones":
		dump(store.LoadZones(ctx), *key, *jsonOut)
	case "capacity":
		dump(store.LoadCapacity(ctx), *key, *jsonOut)
	default:
		fmt.Fprintf(os.Stderr, "unknown table %q\n", *table)
		os.Exit(2)
	}
}

func dump[V any](m map[string]V, key string, jsonOut bool) {
	if key != "" {
		v, ok := m[key]
		if !ok {
			fmt.Fprintf(os.Stderr, "no entry for key %q\n", key)
			os.Exit(1)
		}
		printEntry(key, v, jsonOut)
		return
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printEntry(k, m[k], jsonOut)
	}
}

func printEntry[V any](key string, v V, jsonOut bool) {
	if jsonOut {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Printf("%s:\n%s\n", key, b)
		return
	}
	fmt.Printf("%-40s %+v\n", key, v)
}
