package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/mcphub/internal/backup"
	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/scheduler"
	"github.com/fentz26/mcphub/internal/watcher"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds the graceful shutdown of the daemon.
const shutdownTimeout = 30 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run MCP Hub in the background",
	Long: `Runs the long-lived MCP Hub process. It serves the HTTP discovery endpoint,
keeps the ~/.mcp mirror fresh, prunes old backups, checks server health on a
schedule and watches client config files for outside edits.`,
	RunE: runDaemon,
}

// daemonRefresher refreshes discovery and re-targets the drift watcher, so
// changes made by other processes are picked up on each tick.
type daemonRefresher struct {
	app     *app
	watcher *watcher.Watcher
}

func (r *daemonRefresher) Refresh(ctx context.Context) error {
	if r.watcher != nil {
		if instances, err := r.app.svc.ListInstances(); err != nil {
			logging.Error("Daemon", err, "Failed to list instances for the watcher")
		} else {
			r.watcher.SetTargets(instances)
		}
	}
	return r.app.lifecycle.Refresh(ctx)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	logging.Info("Daemon", "Starting MCP Hub daemon...")

	var w *watcher.Watcher
	var beforeWrite func(string)
	if cfg.Watch.Enabled {
		w = watcher.New(cfg.WatchDebounce())
		// Our own writes land within a debounce window of this call.
		window := cfg.WatchDebounce() + 2*time.Second
		beforeWrite = func(path string) { w.Ignore(path, window) }
	}

	a, err := openApp(appOptions{ownEndpoint: true, beforeWrite: beforeWrite})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.lifecycle.Startup(ctx); err != nil {
		logging.Error("Daemon", err, "Discovery startup failed")
	}

	refresher := &daemonRefresher{app: a, watcher: w}
	maintenance := scheduler.NewMaintenance(a.store, refresher, backup.NewManager(a.backupDir), a.checker, &scheduler.Config{
		RefreshInterval:   cfg.RefreshInterval(),
		PruneInterval:     cfg.PruneInterval(),
		HealthInterval:    cfg.HealthInterval(),
		HealthConcurrency: cfg.Health.Concurrency,
	})
	sched := scheduler.New(maintenance.Jobs()...)
	sched.Start()

	if w != nil {
		instances, err := a.svc.ListInstances()
		if err != nil {
			logging.Error("Daemon", err, "Failed to list instances for the watcher")
		}
		w.SetTargets(instances)

		events := make(chan watcher.Event, 16)
		if err := w.Start(ctx, events); err != nil {
			logging.Error("Daemon", err, "Drift watcher not started")
		} else {
			go handleDrift(ctx, a, events, cfg.Watch.ResyncOnDrift)
		}
	}

	if st := a.lifecycle.Status(); st.HTTPServerRunning {
		logging.Info("Daemon", "Discovery endpoint listening on port %d", st.Port)
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("Daemon", "Received signal %v, initiating graceful shutdown...", sig)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	sched.Stop()
	if w != nil {
		if err := w.Stop(); err != nil {
			logging.Error("Daemon", err, "Watcher stop failed")
		}
	}

	logging.Info("Daemon", "Stopping discovery endpoint...")
	if err := a.lifecycle.Shutdown(shutdownCtx); err != nil {
		logging.Error("Daemon", err, "Discovery shutdown failed")
	}

	logging.Info("Daemon", "Closing database connection...")
	if err := a.store.Close(); err != nil {
		logging.Error("Daemon", err, "Database close failed")
	}

	logging.Info("Daemon", "Shutdown complete")
	return nil
}

// handleDrift logs outside edits to client config files and, when asked,
// rewrites them from the registry.
func handleDrift(ctx context.Context, a *app, events <-chan watcher.Event, resync bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			logging.Warn("Daemon", "Client config %s changed outside MCP Hub (%s)", ev.Path, ev.Op)
			if !resync || ev.Op == watcher.OpRemove {
				continue
			}
			for _, id := range ev.InstanceIDs {
				if _, err := a.svc.SyncInstance(ctx, id); err != nil {
					logging.Error("Daemon", err, "Resync of instance %s failed", id)
					continue
				}
				logging.Info("Daemon", "Resynced instance %s after drift", id)
			}
		}
	}
}
