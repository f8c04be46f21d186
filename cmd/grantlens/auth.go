package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Google Sheets.`,
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Open your browser to authenticate with Google
2. Cache the token for future runs
3. Save the refresh token to your config file

You'll need to run this once before 'grantlens export sheets' unless you use
a service account.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	tokenFile, err := sheetsTokenFile()
	if err != nil {
		return err
	}
	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	token, err := sheets.Authenticate(ctx, sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	}, func(url string) {
		fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to continue:"))
		fmt.Fprintln(out, "  "+url)
		openBrowser(url)
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	viper.Set("sheets.refresh_token", token.RefreshToken)
	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		fmt.Fprintln(out, cli.FormatWarning("Could not save the refresh token. Add this to your config.yaml:"))
		fmt.Fprintf(out, "sheets:\n  refresh_token: %q\n", token.RefreshToken)
	} else {
		fmt.Fprintln(out, cli.FormatSuccess("Authentication successful"))
	}
	fmt.Fprintln(out, cli.FormatInfo("Run 'grantlens export sheets' to publish a report."))
	return nil
}

// sheetsTokenFile is where the OAuth2 token is cached, under
// $XDG_CONFIG_HOME or ~/.config.
func sheetsTokenFile() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "grantlens", "sheets-token.json"), nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(home, ".config", "grantlens", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
