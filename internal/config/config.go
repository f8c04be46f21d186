package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/model"
)

// EnvPrefix prefixes every environment variable viper reads.
const EnvPrefix = "GRANTLENS"

// Configuration keys.
const (
	KeyDataDir        = "data.dir"
	KeyNIHDir         = "data.nih_dir"
	KeyOrganizations  = "data.organizations"
	KeyAssetsDir      = "assets.dir"
	KeyAssetsManifest = "assets.manifest"
	KeyStoragePath    = "storage.path"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
)

// OrganizationEntry is one configured organization. Key names the
// <Key>_grantmakers.csv and <Key>_grants.csv pair in the data directory and
// defaults to Name without spaces; Grantmakers and Grants override the paths.
type OrganizationEntry struct {
	Name        string `mapstructure:"name"`
	Key         string `mapstructure:"key"`
	Grantmakers string `mapstructure:"grantmakers"`
	Grants      string `mapstructure:"grants"`
}

// Config is the resolved application configuration.
type Config struct {
	DataDir        string
	NIHDir         string
	AssetsDir      string
	AssetsManifest string
	StoragePath    string
	LogLevel       string
	LogFormat      string
	Organizations  []model.Organization
}

// DefaultOrganizationNames lists the organizations analyzed when none are
// configured.
func DefaultOrganizationNames() []string {
	return []string{"Corewell", "Henry Ford", "Kaiser", "Pittsburgh"}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyAssetsDir, ".")
	v.SetDefault(KeyStoragePath, ":memory:")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Init prepares v to read configuration: the .env file in the working
// directory is loaded into the environment first, then the config file
// (cfgFile, or config.yaml in $HOME/.config/grantlens or the working
// directory) and GRANTLENS_* variables. A missing config file is not an
// error.
func Init(v *viper.Viper, cfgFile string) error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "grantlens"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("No config file found, using defaults")
	}
	return nil
}

// LoadDotEnv loads path into the environment when it exists. Variables that
// are already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("Loaded environment file", "path", path)
	return nil
}

// Load resolves the configuration held by v. Only a missing data directory
// is fatal; other paths are checked by the commands that need them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DataDir:        ExpandPath(v.GetString(KeyDataDir)),
		NIHDir:         ExpandPath(v.GetString(KeyNIHDir)),
		AssetsDir:      ExpandPath(v.GetString(KeyAssetsDir)),
		AssetsManifest: ExpandPath(v.GetString(KeyAssetsManifest)),
		StoragePath:    v.GetString(KeyStoragePath),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}
	if cfg.StoragePath != ":memory:" {
		cfg.StoragePath = ExpandPath(cfg.StoragePath)
	}

	info, err := os.Stat(cfg.DataDir)
	if err != nil || !info.IsDir() {
		return nil, common.NewUserError(
			fmt.Sprintf("Data directory not found: %s", cfg.DataDir),
			fmt.Errorf("%w: %s", common.ErrDataDirMissing, cfg.DataDir),
		)
	}
	if cfg.NIHDir == "" {
		cfg.NIHDir = filepath.Join(cfg.DataDir, "nih")
	}

	var entries []OrganizationEntry
	if err := v.UnmarshalKey(KeyOrganizations, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyOrganizations, err)
	}
	if len(entries) == 0 {
		for _, name := range DefaultOrganizationNames() {
			entries = append(entries, OrganizationEntry{Name: name})
		}
	}
	orgs, err := Organizations(cfg.DataDir, entries)
	if err != nil {
		return nil, err
	}
	cfg.Organizations = orgs
	return cfg, nil
}

// Organizations resolves entries into organizations whose relative paths are
// joined to dataDir.
func Organizations(dataDir string, entries []OrganizationEntry) ([]model.Organization, error) {
	orgs := make([]model.Organization, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: organization %d has no name", common.ErrInvalidConfig, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: organization %q listed twice", common.ErrInvalidConfig, name)
		}
		seen[name] = true

		key := e.Key
		if key == "" {
			key = strings.ReplaceAll(name, " ", "")
		}
		orgs = append(orgs, model.Organization{
			Name:            name,
			GrantmakersPath: resolve(dataDir, e.Grantmakers, key+"_grantmakers.csv"),
			GrantsPath:      resolve(dataDir, e.Grants, key+"_grants.csv"),
		})
	}
	return orgs, nil
}

func resolve(dir, path, fallback string) string {
	if path == "" {
		return filepath.Join(dir, fallback)
	}
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
