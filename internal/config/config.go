package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "BLOSSOMS_CONFIG"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Port     string `mapstructure:"port"`
	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`
	MongoDB  string `mapstructure:"mongo_database"`

	StorageDriver string `mapstructure:"storage_driver"`
	MediaDir      string `mapstructure:"media_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3PublicURL   string `mapstructure:"s3_public_url"`

	CORSOrigins []string `mapstructure:"cors_origins"`
	BodyLimit   int      `mapstructure:"body_limit"`
	// WriteRateLimit caps product and order mutations per client IP per
	// minute; 0 disables the limiter.
	WriteRateLimit int `mapstructure:"write_rate_limit"`

	ReconcileSchedule string `mapstructure:"reconcile_schedule"`
	ReconcileOnStart  bool   `mapstructure:"reconcile_on_start"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        slog.Level    `mapstructure:"log_level"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_dsn", "blossoms.db") // sqlite file in project root
	v.SetDefault("mongo_database", "blossoms")
	v.SetDefault("storage_driver", StorageLocal)
	v.SetDefault("media_dir", "./media")
	v.SetDefault("public_base_url", "http://localhost:5000")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_public_url", "")
	v.SetDefault("cors_origins", []string{"http://localhost:3000", "https://blossomsbotique.com"})
	v.SetDefault("body_limit", 10<<20) // 10 MiB, room for product images
	v.SetDefault("write_rate_limit", 60)
	v.SetDefault("reconcile_schedule", "0 0 * * *")
	v.SetDefault("reconcile_on_start", false)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from defaults, an optional config file, the
// environment and command line flags, in increasing order of precedence.
// args are the command line arguments without the program name.
func Load(args []string) (Config, error) {
	v := viper.New()
	defaults(v)

	fs := pflag.NewFlagSet("blossoms", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	file := fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("port", "", "HTTP listen port")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if f := fs.Lookup("port"); f.Changed {
		v.Set("port", f.Value.String())
	}

	v.AutomaticEnv()

	path := *file
	if env, ok := os.LookupEnv(configFileEnvName); ok && path == "" {
		path = env
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	slog.Info("config loaded",
		"port", cfg.Port, "db_driver", cfg.DBDriver, "storage_driver", cfg.StorageDriver,
		"media_dir", cfg.MediaDir, "reconcile_schedule", cfg.ReconcileSchedule, "log_file", cfg.LogFile)
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	case DriverMongo:
		if !strings.HasPrefix(c.DBDSN, "mongodb://") && !strings.HasPrefix(c.DBDSN, "mongodb+srv://") {
			return fmt.Errorf("config: db_dsn must be a mongodb:// URI for db_driver %q", DriverMongo)
		}
	default:
		return fmt.Errorf("config: unknown db_driver %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("config: s3_bucket is required for storage_driver %q", StorageS3)
		}
	default:
		return fmt.Errorf("config: unknown storage_driver %q", c.StorageDriver)
	}
	if c.WriteRateLimit < 0 {
		return fmt.Errorf("config: write_rate_limit must not be negative")
	}
	if strings.TrimSpace(c.ReconcileSchedule) == "" {
		return fmt.Errorf("config: reconcile_schedule is empty")
	}
	return nil
}

// decodeHook keeps viper's stock string conversions and adds text
// unmarshalling so log_level accepts "debug", "info", "warn" and "error".
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}
