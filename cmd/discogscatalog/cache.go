package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"discogscatalog/pkg/cache"
	"discogscatalog/pkg/config"
	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/models"
	"discogscatalog/pkg/render"
	"discogscatalog/pkg/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the release cache",
	Long: `Cached releases are never refreshed by 'build'. Remove a release to have
it fetched again on the next run, or clear the cache to start over.

Thumbnails under <cache_dir>/images are left alone.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached releases",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached release",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <release-id>...",
	Short: "Remove releases from the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCacheRemove,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default .cache)")
}

// withCache opens the configured cache, runs fn and saves on close
func withCache(fn func(cfg *config.Config, store *cache.Store) error) error {
	flags := globalFlags()
	if cacheDir != "" {
		flags["cache-dir"] = cacheDir
	}
	cfg, err := config.LoadUnvalidated(configFile, flags)
	if err != nil {
		return err
	}

	store, err := cache.Open(cfg.Cache.Dir, logger.GetLogger())
	if err != nil {
		return err
	}
	if err := fn(cfg, store); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}

func runCacheList(cmd *cobra.Command, args []string) error {
	return withCache(func(cfg *config.Config, store *cache.Store) error {
		rows := make([]models.ReportRow, 0, store.Len())
		for _, id := range store.Keys() {
			if row, ok := store.Get(id); ok {
				rows = append(rows, row)
			}
		}
		ui.Println(render.CacheTable(rows, cfg.Discogs.Currency))
		return nil
	})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	return withCache(func(cfg *config.Config, store *cache.Store) error {
		n := store.Len()
		store.Clear()
		ui.PrintSuccess(fmt.Sprintf("Removed %d cached releases from %s", n, store.Path()))
		return nil
	})
}

func runCacheRemove(cmd *cobra.Command, args []string) error {
	ids, err := parseReleaseIDs(args)
	if err != nil {
		return err
	}

	return withCache(func(cfg *config.Config, store *cache.Store) error {
		for _, id := range ids {
			if store.Remove(id) {
				ui.PrintSuccess(fmt.Sprintf("Removed release %d", id))
			} else {
				ui.PrintWarning(fmt.Sprintf("Release %d is not cached", id))
			}
		}
		return nil
	})
}

func parseReleaseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid release id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
