// Command recommend is an interactive REPL over a Recommender: it asks for
// a task type, energy level and heuristic duration, prints a focus and
// break recommendation, then asks how the session actually went and feeds
// that back in as an observation.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/focusadapt/recommender/internal/config"
	"github.com/focusadapt/recommender/internal/logging"
	"github.com/focusadapt/recommender/internal/recommender"
	"github.com/focusadapt/recommender/internal/reward"
	"github.com/focusadapt/recommender/internal/storage"
)

func main() {
	dbPath := envOr("FOCUSADAPT_DB", "focusadapt.db")
	cfgPath := envOr("FOCUSADAPT_CONFIG", "")

	logger := logging.New(envOr("FOCUSADAPT_LOG_LEVEL", "info"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := storage.NewStore(dbPath, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	rec := recommender.New(store, time.Now().UnixNano(), cfg, logger)
	ctx := context.Background()

	fmt.Println("focus recommender ready.")
	fmt.Printf("  db: %s\n", dbPath)
	fmt.Println("commands: task <name> <low|mid|high> <minutes>   |   quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		fields := strings.Fields(line)
		if len(fields) != 4 || fields[0] != "task" {
			fmt.Println("usage: task <name> <low|mid|high> <heuristic-minutes>")
			continue
		}

		heuristic, err := strconv.Atoi(fields[3])
		if err != nil {
			fmt.Println("heuristic-minutes must be an integer")
			continue
		}

		c := storage.Context{
			TaskType:    storage.NormalizeTaskType(fields[1]),
			EnergyLevel: storage.EnergyLevel(fields[2]),
		}

		focusRec := rec.RecommendFocus(ctx, c, heuristic, nil)
		breakRec := rec.RecommendBreak(ctx, c, 5, focusRec.Minutes)
		fmt.Printf("focus: %d min (%s)   break: %d min (%s)\n", focusRec.Minutes, focusRec.Source, breakRec.Minutes, breakRec.Source)

		fmt.Print("how did it go? [completed|skippedFocus|skippedBreak] focused-minutes: ")
		if !scanner.Scan() {
			break
		}
		outcomeFields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(outcomeFields) != 2 {
			fmt.Println("skipping observation: expected '<completionType> <focused-minutes>'")
			continue
		}
		focused, err := strconv.Atoi(outcomeFields[1])
		if err != nil {
			fmt.Println("focused-minutes must be an integer")
			continue
		}

		rec.ObserveOutcome(ctx, c, recommender.SessionOutcome{
			CompletionType:          reward.CompletionType(outcomeFields[0]),
			SelectedFocusMinutes:    focusRec.Minutes,
			SelectedBreakMinutes:    breakRec.Minutes,
			FocusedMinutes:          focused,
			RecommendedFocusMinutes: focusRec.Minutes,
			AcceptedRecommendation:  true,
		})
		fmt.Println("recorded.")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
