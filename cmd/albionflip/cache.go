package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/storage/archive"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the archived provider payloads",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List archived payloads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, err := cacheStorage()
		if err != nil {
			return err
		}

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		paths, err := storage.List(cmd.Context(), prefix)
		if err != nil {
			return fmt.Errorf("listing archive: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path...]",
	Short: "Delete archived payloads (the catalog cache by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, log, err := cacheStorage()
		if err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			cfg, err := loadConfig(log)
			if err != nil {
				return err
			}
			paths = []string{cfg.Sources.Catalog.CacheKey}
		}

		for _, p := range paths {
			exists, err := storage.Exists(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("checking %s: %w", p, err)
			}
			if !exists {
				log.Info("nothing cached", zap.String("path", p))
				continue
			}
			if err := storage.Delete(cmd.Context(), p); err != nil {
				return fmt.Errorf("deleting %s: %w", p, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", p)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cacheStorage opens the configured archive, failing when none is configured
func cacheStorage() (archive.Storage, *zap.Logger, error) {
	log := newLogger("")

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, nil, err
	}
	storage, err := openArchive(cfg)
	if err != nil {
		return nil, nil, err
	}
	if storage == nil {
		return nil, nil, fmt.Errorf("no archive configured (set archive.type to localfs or s3)")
	}
	return storage, log, nil
}
