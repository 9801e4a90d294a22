package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/rollcall/internal/cache"
)

// cacheCmd groups oracle decision cache commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the oracle decision cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every cached oracle decision",
	Long: `Clear removes cached oracle selections and declines so the next
resolve run asks the oracle again for every ambiguous name.
With --expired only decisions past their TTL are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("Would clear %s\n", cfg.Cache.Dir)
			return nil
		}

		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		if clearExpiredOnly {
			n, err := c.Prune()
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			fmt.Printf("✓ Removed %d expired oracle decisions from %s\n", n, cfg.Cache.Dir)
			return nil
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Printf("✓ Cleared oracle cache: %s\n", cfg.Cache.Dir)
		return nil
	},
}

var clearExpiredOnly bool

func init() {
	cacheClearCmd.Flags().BoolVar(&clearExpiredOnly, "expired", false, "only remove expired decisions")
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
