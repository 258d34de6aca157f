package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meikuraledutech/dagcheck/logging"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the validation history table",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the dag_validations table if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.CreateSchema(cmd.Context()); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		logging.Info("Schema", "schema created")
		return nil
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the dag_validations table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.DropSchema(cmd.Context()); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
		logging.Info("Schema", "schema dropped")
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaCreateCmd)
	schemaCmd.AddCommand(schemaDropCmd)
}
