package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gcslink/pkg/config"
	"gcslink/pkg/logging"
	"gcslink/pkg/vehicle"
	"gcslink/pkg/version"
)

var (
	configPath string
	endpoint   string
	traceLog   bool
)

var rootCmd = &cobra.Command{
	Use:     "gcs",
	Short:   "MAVLink ground-control link",
	Long:    "gcs connects to a single vehicle over MAVLink and drives mission, fence, and rally plan synchronisation plus basic flight commands.",
	Version: version.Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/gcs.yaml", "path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "endpoint spec override (udp:host:port, tcp:host:port, serial:dev:baud)")
	rootCmd.PersistentFlags().BoolVar(&traceLog, "trace", false, "log every frame (very noisy)")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(armCmd)
	rootCmd.AddCommand(disarmCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(takeoffCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(setCurrentCmd)
}

// setup loads config, initialises logging, and connects to the vehicle.
// The returned cleanup closes the session and the log file.
func setup(ctx context.Context) (*vehicle.Vehicle, *config.Config, func(), error) {
	// .env is optional; real deployments use the YAML config.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if endpoint != "" {
		cfg.Link.Endpoint = endpoint
	}

	closeLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	logging.EnableTrace = traceLog

	v, err := vehicle.ConnectWithConfig(ctx, cfg.Link.Endpoint, sessionConfig(cfg))
	if err != nil {
		closeLogs()
		return nil, nil, nil, err
	}

	cleanup := func() {
		v.Close()
		closeLogs()
	}
	return v, cfg, cleanup, nil
}

func sessionConfig(cfg *config.Config) vehicle.Config {
	vc := vehicle.DefaultConfig()
	vc.SystemID = cfg.Link.SystemID
	vc.ComponentID = cfg.Link.ComponentID
	vc.ConnectTimeout = cfg.Link.ConnectTimeout.Std()
	vc.LinkTimeout = cfg.Link.LinkTimeout.Std()
	vc.HeartbeatInterval = cfg.Link.HeartbeatInterval.Std()
	vc.CommandTimeout = cfg.Link.CommandTimeout.Std()
	vc.AutoRequestHome = cfg.Link.AutoRequestHome
	vc.Retry.RequestTimeout = cfg.Transfer.RequestTimeout.Std()
	vc.Retry.ItemTimeout = cfg.Transfer.ItemTimeout.Std()
	vc.Retry.MaxRetries = cfg.Transfer.MaxRetries
	return vc
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
