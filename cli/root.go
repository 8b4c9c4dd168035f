// Package cli provides the altimpact command-line interface and service
// entry point: configuration loading (a set flag beats the YAML config
// file, and both beat an ALTIMPACT_* variable already in the
// environment), collaborator wiring, and graceful shutdown.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"altimpact.dev/api"
	"altimpact.dev/config"
	httpkit "altimpact.dev/http"
	"altimpact.dev/logging"
	"altimpact.dev/pipeline"
	"altimpact.dev/progress"
	"altimpact.dev/provider"
	"altimpact.dev/providers"
	"altimpact.dev/roster"
	"altimpact.dev/store"
	"altimpact.dev/worker"
	"altimpact.dev/workqueue"
)

// envPrefix is the fixed prefix every altimpact environment variable is
// namespaced under (ALTIMPACT_STORE_URL, ALTIMPACT_REDIS_ADDR, ...).
const envPrefix = "ALTIMPACT"

// cfgFile holds the path to an explicit config file given via --config.
var cfgFile string

// useMemory runs against in-memory Store/Registry/Queue implementations
// instead of CouchDB/Redis; development and test convenience only.
var useMemory bool

// RootCmd is the altimpact service entry point.
var RootCmd = &cobra.Command{
	Use:   "altimpact",
	Short: "collects and merges scholarly-artifact aliases, biblio, and usage metrics from external providers",
	Long: `altimpact admits scholarly artifacts by a single seed identifier (a DOI,
a GitHub repo, a URL, ...), fans out to a roster of external provider
adapters to resolve further aliases, bibliographic metadata, and usage
metrics, and serves the merged result over a small HTTP API alongside
collection grouping and CSV export.`,
	Run: runServer,
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.altimpact.yaml)")
	RootCmd.PersistentFlags().String("port", "", "HTTP server port")
	RootCmd.PersistentFlags().String("store-url", "", "Item Store (CouchDB) URL")
	RootCmd.PersistentFlags().String("store-database", "", "Item Store database name")
	RootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the Progress Registry and Work Queue")
	RootCmd.PersistentFlags().String("roster-path", "", "provider roster file path")
	RootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use in-memory Store/Registry/Queue instead of CouchDB/Redis (development only)")

	viper.BindPFlag("port", RootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("store.url", RootCmd.PersistentFlags().Lookup("store-url"))
	viper.BindPFlag("store.database", RootCmd.PersistentFlags().Lookup("store-database"))
	viper.BindPFlag("redis.addr", RootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("roster.path", RootCmd.PersistentFlags().Lookup("roster-path"))
}

// initConfig discovers and loads an optional YAML config file, matching
// this codebase's existing viper-driven CLI config discovery.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".altimpact")
	}

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// applyOverrides pushes any explicitly-set flag or config-file value into
// the process environment under its ALTIMPACT_* name, so a single
// config.LoadAppConfig call sees flags and file values take precedence
// over whatever was already in the environment.
func applyOverrides() {
	overrides := map[string]string{
		"port":           envPrefix + "_PORT",
		"store.url":      envPrefix + "_STORE_URL",
		"store.database": envPrefix + "_STORE_DATABASE",
		"redis.addr":     envPrefix + "_REDIS_ADDR",
		"roster.path":    envPrefix + "_ROSTER_PATH",
	}
	for viperKey, envKey := range overrides {
		if v := viper.GetString(viperKey); v != "" {
			os.Setenv(envKey, v)
		}
	}
}

func runServer(cmd *cobra.Command, args []string) {
	applyOverrides()

	cfg, err := config.LoadAppConfig(envPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: "info", JSON: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, registry, queue, closeFn, err := buildBackends(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("backend initialization failed")
	}
	if closeFn != nil {
		defer closeFn()
	}

	rosterEntries, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		logger.WithError(err).Fatal("roster load failed")
	}
	active := roster.Select(providers.Default(), rosterEntries)
	workerCounts := roster.WorkerCounts(rosterEntries, cfg.Worker.DefaultWorkersPerProvider)

	byName := map[string]provider.Provider{}
	for _, p := range active {
		byName[p.Name()] = p
	}

	envelope := provider.NewEnvelope(logger)
	orchestrator := &pipeline.Orchestrator{Store: st, Queue: queue, Registry: registry, Roster: active, Logger: logger}
	aliasRouter := &pipeline.AliasRouter{Store: st, Queue: queue, Roster: active, Logger: logger}
	processor := &pipeline.Processor{Store: st, Queue: queue, Registry: registry, Envelope: envelope, Roster: byName, Logger: logger}

	providerPool := worker.NewPool(queue, processor, worker.Config{DequeueWait: cfg.Worker.DequeueWait}, logger)
	providerPool.Start(ctx, workerCounts)

	aliasPool := worker.NewPool(queue, aliasRouter, worker.Config{DequeueWait: cfg.Worker.DequeueWait}, logger)
	aliasPool.Start(ctx, map[string]int{workqueue.AliasQueueName: 2})

	go admissionLoop(ctx, orchestrator, cfg.Worker.AdmissionPollInterval, logger)

	apiFacade := api.New(st, registry, active, logger)
	serverCfg := httpkit.DefaultServerConfig()
	if cfg.Server.Port != 0 {
		serverCfg.Port = cfg.Server.Port
	}
	echoServer := api.NewServer(apiFacade, serverCfg)

	go func() {
		logger.WithField("port", serverCfg.Port).Info("starting altimpact server")
		if err := httpkit.StartServer(echoServer, serverCfg); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	providerPool.Stop()
	aliasPool.Stop()
	if err := httpkit.GracefulShutdown(echoServer, 10*time.Second); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

// admissionLoop periodically hands newly-created items their first routing
// pass; needs_aliases is modeled as admission-only
// poll state rather than a global queue-by-view.
func admissionLoop(ctx context.Context, o *pipeline.Orchestrator, interval time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.AdmitPending(ctx); err != nil {
				logger.WithError(err).Error("admission pass failed")
			}
		}
	}
}
