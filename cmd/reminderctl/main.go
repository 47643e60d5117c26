package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bookwell/internal/app"
	"bookwell/internal/auth"
	"bookwell/internal/config"
	"bookwell/internal/database"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reminderctl",
	Short: "Operate the Bookwell reminder engine",
}

var (
	tokenExpiry time.Duration
	tokenOps    bool
)

var tokenCmd = &cobra.Command{
	Use:   "token [tenant_id]",
	Short: "Issue an API token scoped to a tenant, or an operator token with --ops",
	Args: func(cmd *cobra.Command, args []string) error {
		if tokenOps {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		expiry := cfg.JWTExpiry
		if tokenExpiry > 0 {
			expiry = tokenExpiry
		}
		var token string
		if tokenOps {
			token, err = auth.GenerateOpsToken(cfg.JWTSecret, expiry)
		} else {
			token, err = auth.GenerateToken(args[0], cfg.JWTSecret, expiry)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one dispatch tick and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		engine, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		summary, err := engine.Dispatcher.DispatchDue(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the reminder tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dsn, err := cfg.DSN()
		if err != nil {
			return err
		}
		// Open migrates before returning
		db, err := database.Open(dsn)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenExpiry, "expiry", 0, "token lifetime (default JWT_EXPIRY)")
	tokenCmd.Flags().BoolVar(&tokenOps, "ops", false, "issue an operator token for POST /api/reminders/dispatch")
	rootCmd.AddCommand(tokenCmd, dispatchCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
