package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lnsongxf/gametheory/pkg/cache"
	"github.com/lnsongxf/gametheory/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached matchings, traces and diagrams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch c.Config.Cache.Backend {
			case config.BackendNone:
				printInfo("Cache is disabled")
				return nil
			case config.BackendRedis:
				rc, err := cache.NewRedisCache(ctx, c.Config.RedisCacheConfig())
				if err != nil {
					return err
				}
				defer rc.Close()
				var count int
				err = cache.RetryWithBackoff(ctx, func() error {
					n, err := rc.Clear(ctx)
					count += n
					return err
				})
				if err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", count)
				printDetail("Redis: %s", c.Config.Redis.Addr)
				return nil
			}

			dir, err := c.Config.CacheDir()
			if err != nil {
				return err
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.BackendNone:
				return fmt.Errorf("cache is disabled")
			case config.BackendRedis:
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d %s*\n", c.Config.Redis.Addr, c.Config.Redis.DB, c.Config.Redis.Prefix)
				return nil
			}
			dir, err := c.Config.CacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
