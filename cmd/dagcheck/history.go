package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recent validation verdicts from PostgreSQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if historyLimit <= 0 {
			historyLimit = cfg.History.DefaultLimit
		}

		store, closeStore, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		records, err := store.ListValidations(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of records (default history.default_limit)")
}
