// Package sheets exports analysis reports to Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"time"
)

// DefaultSpreadsheetName titles spreadsheets created without an explicit name.
const DefaultSpreadsheetName = "Grant Analysis Report"

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	RetryMaxDelay      time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  DefaultSpreadsheetName,
		TimeZone:         "America/Detroit",
		BatchSize:        500,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		RetryMaxDelay:    30 * time.Second,
	}
}

// LoadFromEnv fills unset credentials and spreadsheet settings from the
// GOOGLE_SHEETS_* environment variables.
func (c *Config) LoadFromEnv() {
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	set(&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	set(&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	set(&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	set(&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	set(&c.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")

	if c.SpreadsheetName == "" || c.SpreadsheetName == DefaultSpreadsheetName {
		if v := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); v != "" {
			c.SpreadsheetName = v
		}
	}
	if c.SpreadsheetName == "" {
		c.SpreadsheetName = DefaultSpreadsheetName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured: provide a service account path or OAuth2 credentials")
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	return nil
}
