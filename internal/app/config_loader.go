package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yourusername/tunedrop/internal/domain"
)

const envPrefix = "TUNEDROP"

// envAliases maps config keys to the unprefixed variable names older deployments use
var envAliases = map[string]string{
	"media.cloud_name":  "CLOUDINARY_CLOUD_NAME",
	"media.api_key":     "CLOUDINARY_API_KEY",
	"media.api_secret":  "CLOUDINARY_API_SECRET",
	"storage.mongo_uri": "MONGO_URI",
	"cookies.path":      "YT_COOKIES_PATH",
}

// LoadDotEnv loads variables from a .env file without overriding the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tunedrop")
		v.AddConfigPath("/etc/tunedrop")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvKeys(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys makes every config key visible to AutomaticEnv, including keys
// absent from the config file, and registers the legacy aliases
func bindEnvKeys(v *viper.Viper) error {
	for _, key := range configKeys(reflect.TypeOf(domain.Config{}), "") {
		names := []string{envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if alias, ok := envAliases[key]; ok {
			names = append(names, alias)
		}
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// configKeys lists the dotted mapstructure keys of every leaf field
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			keys = append(keys, configKeys(field.Type, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// valueAt follows a dotted mapstructure key into a struct value
func valueAt(v reflect.Value, key string) reflect.Value {
	for _, part := range strings.Split(key, ".") {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if strings.Split(t.Field(i).Tag.Get("mapstructure"), ",")[0] == part {
				v = v.Field(i)
				break
			}
		}
	}
	return v
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Downloader.TempDir = expandPath(config.Downloader.TempDir)
	config.Downloader.LogsDir = expandPath(config.Downloader.LogsDir)
	config.Storage.DatabasePath = expandPath(config.Storage.DatabasePath)
	config.Cookies.Path = expandPath(config.Cookies.Path)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.RateLimit < 0 || config.Server.RateBurst < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	if config.Downloader.Binary == "" {
		return fmt.Errorf("downloader binary not configured")
	}

	if config.Downloader.TempDir == "" {
		return fmt.Errorf("downloader temp directory not configured")
	}

	if config.Downloader.ToolTimeout < 0 || config.Downloader.ProbeTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	if config.Media.ChunkSize <= 0 {
		return fmt.Errorf("media chunk size must be positive")
	}

	switch config.Storage.Driver {
	case domain.StorageSQLite:
		if config.Storage.DatabasePath == "" {
			return fmt.Errorf("sqlite database path not configured")
		}
	case domain.StorageMongo:
		if config.Storage.MongoURI == "" {
			return fmt.Errorf("mongo uri not configured")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", config.Storage.Driver)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	root := reflect.ValueOf(config).Elem()
	for _, key := range configKeys(root.Type(), "") {
		v.Set(key, valueAt(root, key).Interface())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
