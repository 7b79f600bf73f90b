package main

import (
	"errors"
	"fmt"

	"chirp/config"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the post search index from the database",
	RunE:  reindexAction,
}

func reindexAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Search.Enabled {
		return errors.New("search is disabled in the configuration")
	}
	if cfg.Search.IndexPath == "" {
		return errors.New("the search index is kept in memory and rebuilt on every start; set search.index_path or SEARCH_INDEX")
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// a fresh index was already filled by newApp
	if a.indexCreated {
		return nil
	}
	n, err := a.index.Rebuild(cmd.Context(), a.posts.All)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	fmt.Printf("Indexed %d posts\n", n)
	return nil
}
