package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheInspect lists the snapshot keys and when they were last written.
func (r *Runner) CacheInspect(ctx context.Context, cmd *cli.Command) error {
	keys, err := r.store.Keys()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return r.writePlainln("Cache is empty")
	}

	r.writePlainHeader("Cached snapshots")
	for key, updatedAt := range keys {
		r.writePlainln("%-20s %s", key, updatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// CacheClear drops every snapshot, session included.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.Clear(); err != nil {
		return err
	}

	return r.writePlainln("✓ Cache cleared")
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the local snapshot cache",
		Commands: []*cli.Command{
			{
				Name:   "inspect",
				Usage:  "List cached snapshots and their timestamps",
				Action: r.CacheInspect,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached snapshot",
				Action: r.CacheClear,
			},
		},
	}
}
