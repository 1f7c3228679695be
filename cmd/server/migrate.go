package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the account schema",
	Long: `Creates the accounts and identity_links tables with their unique indexes on SQL
backends, or the unique indexes of the accounts collection on MongoDB. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openAccountStore(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer store.close(ctx)

		appLogger.Info(ctx, "Account schema is up to date", map[string]interface{}{
			"driver": cfg.StoreDriver,
		})
		return nil
	},
}
