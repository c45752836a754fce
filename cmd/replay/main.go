// Command replay re-runs a recorded fixture of recommend/observe turns
// through a fresh in-memory Recommender and reports where its
// recommendations diverge from what was recorded.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/focusadapt/recommender/internal/config"
	"github.com/focusadapt/recommender/internal/logging"
	"github.com/focusadapt/recommender/internal/replay"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a replay fixture JSON file")
	seed := flag.Int64("seed", 1, "deterministic RNG seed for the replay run")
	jsonOut := flag.Bool("json", false, "output per-turn results as JSON instead of a table")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--seed N] [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("warn")
	rec, store, err := replay.NewInMemoryRecommender(*seed, config.Default(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init recommender: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	results, summary := replay.Run(ctx, rec, fixture.ToTurns())

	if *jsonOut {
		b, _ := json.MarshalIndent(struct {
			Results []replay.Result `json:"results"`
			Summary replay.Summary  `json:"summary"`
		}{results, summary}, "", "  ")
		fmt.Println(string(b))
		return
	}

	for _, r := range results {
		marker := " "
		if r.Diverged {
			marker = "*"
		}
		fmt.Printf("%s %-12s focus=%-3d (%-9s) break=%-3d (%-9s) recorded=%d\n",
			marker, r.TurnID, r.FocusRec.Minutes, r.FocusRec.Source, r.BreakRec.Minutes, r.BreakRec.Source, r.RecordedFocus)
	}
	fmt.Printf("\n%d turns, %d diverged\n", summary.TotalTurns, summary.Diverged)
}
