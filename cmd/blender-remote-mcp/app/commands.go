// Package app provides the blender-remote-mcp command-line application.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/igamenovoer/blender-remote/pkg/config"
	"github.com/igamenovoer/blender-remote/pkg/gateway"
	"github.com/igamenovoer/blender-remote/pkg/logger"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:               "blender-remote-mcp",
	DisableAutoGenTag: true,
	Short:             "Run the Blender Remote MCP gateway: stdio JSON-RPC proxied onto a running bridge",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates the root command for the blender-remote-mcp CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug-level logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("error binding debug flag: %v", err)
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: XDG config path)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SilenceUsage = true
	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gateway version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(Version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP gateway over stdio",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Bridge host to connect to (default: 127.0.0.1 or config file)")
	serveCmd.Flags().Int("port", 0, "Bridge port to connect to (default: 6688 or config file)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	snap, err := config.Load(config.OSEnvReader{}, configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		snap.LogLevel = "DEBUG"
	}
	logger.InitializeWithLevel(snap.LogLevel)

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	opts := gateway.ResolveOptions(gateway.Options{Host: host, Port: port}, snap.Port)

	gw := gateway.New(opts.Host, opts.Port)
	return gw.Serve()
}
