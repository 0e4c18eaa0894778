// Package app provides the blender-remote-bridge command-line application:
// a root command plus serve/version/validate subcommands, using cobra for
// command parsing and viper for flag binding.
package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/igamenovoer/blender-remote/pkg/config"
	"github.com/igamenovoer/blender-remote/pkg/dispatch"
	"github.com/igamenovoer/blender-remote/pkg/host"
	"github.com/igamenovoer/blender-remote/pkg/logger"
	"github.com/igamenovoer/blender-remote/pkg/persist"
	"github.com/igamenovoer/blender-remote/pkg/router"
	"github.com/igamenovoer/blender-remote/pkg/server"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:               "blender-remote-bridge",
	DisableAutoGenTag: true,
	Short:             "Run the Blender Remote bridge: a localhost TCP server exposing the Host's scripting runtime",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates the root command for the blender-remote-bridge CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug-level logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("error binding debug flag: %v", err)
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: XDG config path)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.SilenceUsage = true
	return rootCmd
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge and block until interrupted",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bridge version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(Version)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the resolved configuration without starting the server",
	RunE: func(cmd *cobra.Command, _ []string) {
		snap, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("port=%d start_now=%v log_level=%s\n", snap.Port, snap.StartNow, snap.LogLevel)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "TCP listen port (default from config/env, falls back to 6688)")
	serveCmd.Flags().Bool("headless", true, "Run the simulated Host in headless mode (no viewport operations)")
}

func resolveConfig(cmd *cobra.Command) (config.Snapshot, error) {
	configPath, _ := cmd.Flags().GetString("config")
	snap, err := config.Load(config.OSEnvReader{}, configPath)
	if err != nil {
		return config.Snapshot{}, fmt.Errorf("loading configuration: %w", err)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		snap.LogLevel = "DEBUG"
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		snap.Port = port
	}
	return snap, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	snap, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger.InitializeWithLevel(snap.LogLevel)

	headless, _ := cmd.Flags().GetBool("headless")
	h := host.New(headless, snap.File.Blender.ExecPath)

	worker := dispatch.NewWorker(32)
	store := persist.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(snap.Port))
	rt := router.New(worker, h, store, fmt.Sprintf("tcp://%s", addr), stop)

	srv := server.New(addr, rt)
	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Infof("blender-remote-bridge: listening on %s", addr)

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	logger.Info("blender-remote-bridge: shut down")
	return nil
}
