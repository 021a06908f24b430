package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/collectionmap/pkg/constants"
	"github.com/agentstation/collectionmap/pkg/errors"
)

// envPrefix namespaces environment variables, e.g. COLLECTIONMAP_MONGO_URI.
const envPrefix = "COLLECTIONMAP"

// Config holds the application configuration loaded from flags, environment
// variables, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file actually read, empty when none was found
	ConfigFile string

	// Storage
	Store         string
	SnapshotPath  string
	MongoURI      string
	MongoDatabase string

	// Upload handling
	UploadRetention    time.Duration
	UploadReapInterval time.Duration
	MaxUploadBytes     int64
	StrictRows         bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// newViper returns a viper instance with defaults and environment binding.
// .env and .env.local are loaded into the process environment first.
func newViper() *viper.Viper {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", constants.StoreMemory)
	v.SetDefault("mongo_uri", constants.DefaultMongoURI)
	v.SetDefault("mongo_database", constants.DefaultMongoDatabase)
	v.SetDefault("upload_retention", constants.DefaultUploadRetention)
	v.SetDefault("upload_reap_interval", constants.DefaultReapInterval)
	v.SetDefault("max_upload_bytes", constants.DefaultMaxUploadBytes)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	// The unprefixed names are what most deployments already export.
	_ = v.BindEnv("log_level", envPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log_format", envPrefix+"_LOG_FORMAT", "LOG_FORMAT")
	_ = v.BindEnv("log_output", envPrefix+"_LOG_OUTPUT", "LOG_OUTPUT")
	_ = v.BindEnv("mongo_uri", envPrefix+"_MONGO_URI", "MONGODB_URI")

	return v
}

// LoadConfig reads configuration in order of precedence:
//  1. Command-line flags bound to v
//  2. Environment variables
//  3. .env files
//  4. Config file (--config, or .collectionmap.yaml in $HOME or the working directory)
//  5. Defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+file, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".collectionmap")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading "+v.ConfigFileUsed(), err)
			}
		}
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		Store:         strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		SnapshotPath:  v.GetString("snapshot_path"),
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),

		UploadRetention:    v.GetDuration("upload_retention"),
		UploadReapInterval: v.GetDuration("upload_reap_interval"),
		MaxUploadBytes:     v.GetInt64("max_upload_bytes"),
		StrictRows:         v.GetBool("strict_rows"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the storage and upload settings.
func (c *Config) Validate() error {
	switch c.Store {
	case constants.StoreMemory:
	case constants.StoreMongo:
		if c.MongoURI == "" {
			return errors.NewConfigError("mongo_uri", "required when store is mongo", nil)
		}
		if c.MongoDatabase == "" {
			return errors.NewConfigError("mongo_database", "required when store is mongo", nil)
		}
	default:
		return errors.NewConfigError("store", "must be memory or mongo, got "+c.Store, nil)
	}
	if c.UploadRetention <= 0 {
		return errors.NewConfigError("upload_retention", "must be positive", nil)
	}
	if c.UploadReapInterval <= 0 {
		return errors.NewConfigError("upload_reap_interval", "must be positive", nil)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.NewConfigError("max_upload_bytes", "must be positive", nil)
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
