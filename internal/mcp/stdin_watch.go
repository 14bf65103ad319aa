package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"

	"modelcheck/internal/logging"
)

// parentPollInterval is how often WatchParent compares the parent pid.
var parentPollInterval = 2 * time.Second

// WatchParent cancels the serving context when the process that spawned the
// server goes away, so an orphaned stdio server does not linger.
//
// It must not read stdin: the stdio transport owns it.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	logger := logging.New("mcp")
	go func() {
		t := time.NewTicker(parentPollInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if os.Getppid() != ppid {
					logger.Warn("parent process exited, shutting down", slog.Int("ppid", ppid))
					cancel()
					return
				}
			}
		}
	}()
}
