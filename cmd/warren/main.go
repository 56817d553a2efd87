package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sritchie73/bad-boyz-cluster/pkg/api"
	"github.com/sritchie73/bad-boyz-cluster/pkg/config"
	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/jobstore"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
	"github.com/sritchie73/bad-boyz-cluster/pkg/scheduler"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "grid",
	Short:   "grid - a distributed job-execution coordinator",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"grid version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	serveCmd.Flags().String("config", "", "Path to the coordinator's YAML config file (required)")
	_ = serveCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the grid version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("grid version %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the grid coordinator",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return serve(configPath)
	},
}

// serve wires config, jobstore, grid, scheduler, supervisor, metrics,
// and the API server together and runs until SIGINT/SIGTERM, shutting
// down in dependency order: stop scheduler, stop supervisor, stop
// metrics collector, shut down the API server, shut down the metrics
// server.
func serve(configPath string) error {
	metrics.SetVersion(Version)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("invalid configuration")
		return err
	}

	store, err := jobstore.Open(jobsRootDBPath(cfg.JobsRoot))
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to open jobstore")
		return err
	}
	defer store.Close()
	metrics.RegisterComponent("jobstore", true, "manifest open")

	if err := store.ReconcileAndWipe(cfg.JobsRoot); err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to reconcile jobs root")
		return err
	}

	regCfg, err := cfg.RegistryConfig()
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("invalid queue configuration")
		return err
	}
	g := grid.NewWithConfig(cfg.JobsRoot, regCfg)

	allocatorInterval, err := cfg.AllocatorIntervalDuration()
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("invalid allocator interval")
		return err
	}

	sched, err := scheduler.New(g, cfg.SchedulerStrategy, allocatorInterval)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("invalid scheduler strategy")
		return err
	}
	g.AttachScheduler(sched, cfg.SchedulerStrategy)

	// Loop components go stale after missing a few ticks; the api and
	// jobstore flags flip at bind/open time.
	metrics.RequireComponents("api", "jobstore", "scheduler", "sweeper")
	metrics.RegisterLoop("scheduler", 3*allocatorInterval)
	metrics.RegisterLoop("sweeper", 3*allocatorInterval)

	supervisorStop := make(chan struct{})
	supervisorDone := make(chan struct{})
	go runSupervisor(g, allocatorInterval, supervisorStop, supervisorDone)

	collector := grid.NewMetricsCollector(g)
	collector.Start()

	apiServer := api.NewServer(cfg.BindAddress, cfg, g, store, sched)
	if err := apiServer.Start(); err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to start api server")
		return err
	}

	metricsServer := newMetricsServer(cfg.MetricsBindAddress)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()

	sched.Start()
	gridLogger := log.WithComponent("grid")
	gridLogger.Info().Str("bind", cfg.BindAddress).Msg("grid coordinator started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	gridLogger.Info().Msg("shutting down")

	sched.Stop()

	close(supervisorStop)
	<-supervisorDone

	collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error().Err(err).Msg("error shutting down api server")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Logger.Error().Err(err).Msg("error shutting down metrics server")
	}

	return nil
}

// runSupervisor runs the node liveness sweep once per allocator
// interval, requeueing any work units orphaned by a timed-out node.
func runSupervisor(g *grid.Grid, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.Beat("sweeper")
			g.Sweep()
		case <-stop:
			return
		}
	}
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}

// jobsRootDBPath places the manifest database as a sibling of jobsRoot,
// never inside it; ReconcileAndWipe removes jobsRoot's entire tree on
// every startup, and a manifest that didn't survive that wipe could
// never reconcile against the *previous* run's crash state.
func jobsRootDBPath(jobsRoot string) string {
	parent := filepath.Dir(jobsRoot)
	base := filepath.Base(jobsRoot)
	return filepath.Join(parent, "."+base+".jobstore.db")
}
