package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grantlens",
		Short: "Corporate foundation grant analytics",
		Long: `grantlens loads grantmaker and grant extracts for a set of health-system
foundations, cleans and categorizes them, and reports on funding patterns
with descriptive statistics and hypothesis tests.

Results are available as a terminal report, an interactive dashboard, an
xlsx workbook, or a Google Sheet.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/grantlens/config.yaml)")
	root.PersistentFlags().String("data-dir", "", "directory holding the grant extracts")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyDataDir, root.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(cleanCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(dashboardCmd())
	root.AddCommand(nihCmd())
	root.AddCommand(assetsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(checkpointCmd())
	root.AddCommand(authCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.UserMessage(err)))
		slog.Debug("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}

	level, err := common.ParseLevel(viper.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, viper.GetString(config.KeyLogFormat)); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grantlens %s\n", version)
		},
	}
}
