package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/activity/internal/cache"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local activity cache",
	}

	cmd.AddCommand(newCmdCacheStats())
	cmd.AddCommand(newCmdCacheClear())

	return cmd
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached activity per repository",
		RunE:  runCacheStats,
	}
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached activity",
		RunE:  runCacheClear,
	}
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := cache.NewCache()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	if len(stats) == 0 {
		fmt.Printf("Cache is empty (%s)\n", c.Dir())
		return nil
	}

	fmt.Printf("Cached activity (%s):\n", c.Dir())
	for _, s := range stats {
		fmt.Printf("  %s/%s: %d issues, %d PRs (updated %s)\n",
			s.Org, s.Repo, s.Issues, s.PullRequests, s.LastUpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := cache.NewCache()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}
