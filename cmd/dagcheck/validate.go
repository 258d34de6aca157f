package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/logging"
)

var (
	validateCollapseDuplicates bool
	validateIgnoreDangling     bool
	validateFailOnCycle        bool
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate pipeline files",
	Long: `Validates one or more pipeline files and prints one JSON line per file, in
argument order. Use "-" to read a pipeline from stdin.

Each line carries the file name and either num_nodes, num_edges and is_dag,
or an error message. Files are processed concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateCollapseDuplicates, "collapse-duplicates", false, "count duplicate node ids once")
	validateCmd.Flags().BoolVar(&validateIgnoreDangling, "ignore-dangling", false, "skip edges that reference unknown nodes")
	validateCmd.Flags().BoolVar(&validateFailOnCycle, "fail-on-cycle", false, "exit with status 2 unless every pipeline is acyclic")
}

// fileResult is one output line of the validate command.
type fileResult struct {
	File string `json:"file"`
	dagcheck.Response
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.Validation
	if cmd.Flags().Changed("collapse-duplicates") {
		opts.CollapseDuplicates = validateCollapseDuplicates
	}
	if cmd.Flags().Changed("ignore-dangling") {
		opts.IgnoreDangling = validateIgnoreDangling
	}

	results, err := validateFiles(cmd.Context(), opts, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	allDAG := true
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if !r.OK() || !r.IsDAG {
			allDAG = false
		}
	}
	if validateFailOnCycle && !allDAG {
		return errNotDAG
	}
	return nil
}

// validateFiles processes every path concurrently and returns results in input order.
// Unreadable files are reported in their result line rather than aborting the batch.
func validateFiles(ctx context.Context, opts dagcheck.Options, paths []string, stdin io.Reader) ([]fileResult, error) {
	stdinUses := 0
	for _, p := range paths {
		if p == "-" {
			stdinUses++
		}
	}
	if stdinUses > 1 {
		return nil, errors.New(`"-" may be given at most once`)
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := readPipeline(path, stdin)
			if err != nil {
				logging.Warn("Validate", "%s: %v", path, err)
				results[i] = fileResult{File: path, Response: dagcheck.Response{Error: err.Error()}}
				return nil
			}
			results[i] = fileResult{File: path, Response: opts.Process(raw)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readPipeline(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
