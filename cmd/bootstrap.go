/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yaseralshikh/usermgr/config"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/internal/db"
	"github.com/yaseralshikh/usermgr/internal/observability"
	"github.com/yaseralshikh/usermgr/internal/store"
)

// bootstrapCmd represents the bootstrap command.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Initialize the database snapshot",
	Long: `Initialize the database snapshot. Usage:

	usermgr bootstrap

Loads the existing snapshot (or creates a fresh database), ensures the
schema, imports any legacy flat user list, and seeds the demo account
when the store is empty. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := observability.NewLogger(os.Getenv("ENV"))

		blobs, err := blobstore.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		engine := db.NewEngine(blobs, cfg.DataDir, logger)
		defer func() {
			_ = engine.Close()
		}()

		repo := store.NewUserRepository(engine)
		users, err := repo.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}

		fmt.Printf("store ready: %d user(s)\n", len(users))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}
