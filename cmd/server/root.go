package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-auth/config"
	"go.pilab.hu/shadow-auth/log"
)

var (
	cfg       *config.ServerConfig
	appLogger log.Logger
	envFiles  []string
)

var rootCmd = &cobra.Command{
	Use:   "shadow-auth",
	Short: "Federated login service issuing JWT sessions",
	Long: `shadow-auth signs users in through Google, Kakao, Facebook or GitHub, merges
the provider identities into one account per email and issues access/refresh token pairs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(envFiles...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		appLogger = log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel), cfg.LogPretty)
		return nil
	},
	// Running the binary without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil,
		"dotenv files loaded before the environment (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(accountsCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
