package serve

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"

	"github.com/stratastor/afd/config"
	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/lifecycle"
	"github.com/stratastor/afd/pkg/server"
	"github.com/stratastor/afd/pkg/supervisor"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the afd status server (init-afd's read-only HTTP surface)",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	if rc.WorkDir != "" {
		if err := config.SetWorkDir(rc.WorkDir); err != nil {
			fmt.Printf("Failed to set work dir: %v\n", err)
			os.Exit(1)
		}
	}

	pidFile := constants.AfdPIDFilePath
	// Check for existing instance before proceeding — mirrors init-afd's
	// PROBE_ONLY fifo rule that at most one instance runs per work dir.
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}

	if detached {
		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"afd", "serve"},
		}

		d, err := ctx.Reborn()
		if err != nil {
			fmt.Printf("Failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		if d != nil {
			fmt.Println("afd is running as a daemon")
			return
		}
		defer ctx.Release()
	}

	startServer()
}

func startServer() {
	cfg := config.GetConfig()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register the context canceller
	lifecycle.RegisterContextCanceller(cancel)

	// Attach the shared-state tables (FSA/FRA/MSA) and start the C11
	// sweep loop (check_fsa_entries/check FRA/CML republish) before the
	// HTTP surface comes up, so /api/v1/* never serves a provider that
	// is registered but hasn't swept even once.
	sup, err := supervisor.New(config.GetFifoDir())
	if err != nil {
		fmt.Printf("Failed to attach shared-state tables: %v\n", err)
		os.Exit(1)
	}

	supLog, err := logger.NewTag(config.NewLoggerConfig(cfg), "supervisor")
	if err != nil {
		fmt.Printf("Failed to initialize supervisor logger: %v\n", err)
		os.Exit(1)
	}

	// Wire C5 (scanner)/C6 (dispatch)/C7 (monitor+statistics)/C9
	// (failure) off AFD_CONFIG/DIR_CONFIG. A fresh install with neither
	// file in place yet still starts: ConfigureFromDisk tolerates a
	// missing config and only the C11 sweep loop runs until one is
	// dropped in place and a reload picks it up.
	reconfigure := func() {
		if err := sup.ConfigureFromDisk(config.GetEtcDir(), config.GetLogDir(), supLog, intervalsFromConfig(cfg)); err != nil {
			supLog.Warn("failed to (re)load AFD_CONFIG/DIR_CONFIG", "error", err)
		}
	}
	reconfigure()
	lifecycle.RegisterReloadHook(reconfigure)

	server.RegisterStatusProvider(sup)
	go sup.Run(ctx)

	// Register shutdown hook for server cleanup. Registered after the
	// supervisor's own goroutine is already draining off ctx.Done(), so
	// LIFO shutdown order (pkg/lifecycle) tears the HTTP listener down
	// before anything that feeds it.
	lifecycle.RegisterShutdownHook(func() {
		fmt.Println("Shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			fmt.Printf("Error during server shutdown: %v\n", err)
		}
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	// Start the server
	fmt.Printf("Starting afd status server on port %d\n", cfg.Server.Port)
	if err := server.Start(ctx, cfg.Server.Port); err != nil {
		fmt.Printf("Failed to start server: %v", err)
	}
}

// intervalsFromConfig parses config.Config.Intervals (strings, so
// they survive round-tripping through viper/mapstructure as plain
// "10s"-style durations) into the supervisor's typed Intervals,
// falling back to supervisor.DefaultIntervals() field-by-field for
// anything blank or unparsable.
func intervalsFromConfig(cfg *config.Config) supervisor.Intervals {
	d := supervisor.DefaultIntervals()
	if v, err := time.ParseDuration(cfg.Intervals.AmgScanInterval); err == nil {
		d.Scan = v
	}
	if v, err := time.ParseDuration(cfg.Intervals.StuckSweepInterval); err == nil {
		d.Failure = v
	}
	if v, err := time.ParseDuration(cfg.Intervals.MonitorPollInterval); err == nil {
		d.MonitorRPC = v
	}
	return d
}
