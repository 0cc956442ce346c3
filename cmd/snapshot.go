/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yaseralshikh/usermgr/config"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/internal/db"
)

// snapshotCmd represents the snapshot command.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Work with the persisted database snapshot",
}

var snapshotOut string

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current snapshot to a local file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		blobs, err := blobstore.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		data, err := blobs.Get(cmd.Context(), db.SnapshotKey)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotExist) {
				return errors.New("no snapshot exists yet; run bootstrap first")
			}
			return fmt.Errorf("read snapshot: %w", err)
		}

		if err := os.WriteFile(snapshotOut, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", snapshotOut, err)
		}
		fmt.Printf("exported %d bytes to %s\n", len(data), snapshotOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)

	snapshotExportCmd.Flags().StringVarP(&snapshotOut, "out", "o", "users.db", "output file for the snapshot")
}
