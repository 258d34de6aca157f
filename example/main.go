package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/memory"
	"github.com/meikuraledutech/dagcheck/postgres"
)

func main() {
	ctx := context.Background()

	// History goes to PostgreSQL when DATABASE_URL is set, otherwise to memory.
	var store dagcheck.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ── Validate decoded graphs directly ──────────────────────────────
	fmt.Println("chain:")
	printJSON(dagcheck.Validate(
		[]string{"input", "llm", "output"},
		[]dagcheck.Edge{{Source: "input", Target: "llm"}, {Source: "llm", Target: "output"}},
	))

	fmt.Println("\nfeedback loop:")
	printJSON(dagcheck.Validate(
		[]string{"input", "llm", "output"},
		[]dagcheck.Edge{{Source: "input", Target: "llm"}, {Source: "llm", Target: "output"}, {Source: "output", Target: "llm"}},
	))

	// ── Duplicate ids under both policies ─────────────────────────────
	nodes := []string{"text", "text", "output"}
	edges := []dagcheck.Edge{{Source: "text", Target: "output"}}
	fmt.Println("\nduplicate ids, default policy:")
	printJSON(dagcheck.Validate(nodes, edges))
	fmt.Println("duplicate ids, collapsed:")
	printJSON(dagcheck.Options{CollapseDuplicates: true}.Validate(nodes, edges))

	// ── Raw payloads, as the HTTP service sees them ───────────────────
	var last string
	for _, payload := range []string{
		`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"}]}`,
		`{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"a"}]}`,
		`{"nodes": [`,
	} {
		resp := dagcheck.Options{}.Process([]byte(payload))
		fmt.Printf("\n%s\n", payload)
		printJSON(resp)

		id, err := store.RecordValidation(ctx, dagcheck.NewRecord(resp))
		if err != nil {
			log.Fatalf("record: %v", err)
		}
		last = id
	}

	// ── History ───────────────────────────────────────────────────────
	records, err := store.ListValidations(ctx, 10)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	fmt.Printf("\nhistory (%d):\n", len(records))
	printJSON(records)

	if err := store.DeleteValidation(ctx, last); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nlast record deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
