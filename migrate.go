package main

import (
	"chirp/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		conn, err := setupDB(cfg)
		if err != nil {
			return err
		}
		return conn.Close()
	},
}
