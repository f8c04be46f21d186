package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/sheets"
)

// LoadSheetsConfig builds the Google Sheets configuration. Values set in
// viper (config file or GRANTLENS_SHEETS_* variables) take precedence over
// the GOOGLE_SHEETS_* variables, which take precedence over defaults.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	config.ClientID = v.GetString("sheets.client_id")
	config.ClientSecret = v.GetString("sheets.client_secret")
	config.RefreshToken = v.GetString("sheets.refresh_token")
	config.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if name := v.GetString("sheets.spreadsheet_name"); name != "" {
		config.SpreadsheetName = name
	}
	if v.IsSet("sheets.batch_size") {
		config.BatchSize = v.GetInt("sheets.batch_size")
	}
	if v.IsSet("sheets.formatting") {
		config.EnableFormatting = v.GetBool("sheets.formatting")
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
