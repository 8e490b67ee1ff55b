package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"focal/internal/config"
	"focal/internal/db"
)

func initProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a focal project",
		Long:  "Initialize a focal project by creating the .focal directory, the task database, and a default config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}

			focalDir := filepath.Join(repoRoot, ".focal")
			log.Info().Str("dir", focalDir).Msg("creating focal directory")
			if err := os.MkdirAll(focalDir, 0o755); err != nil {
				return fmt.Errorf("create focal dir: %w", err)
			}

			handle, err := db.Open(filepath.Join(focalDir, "focal.db"))
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			_ = handle.Close()

			configPath := filepath.Join(focalDir, "config.json")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.json already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				data, err := json.MarshalIndent(config.Default(), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal default config: %w", err)
				}
				if err := os.WriteFile(configPath, data, 0o644); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
			}

			fmt.Println("focal initialized successfully")
			return nil
		},
	}
}
