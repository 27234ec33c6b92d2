package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultTripsCSV      = "data/trips.csv"
	DefaultAnalyticDB    = "data/bikeshare.duckdb"
	DefaultRelationalDB  = "data/bikeshare.sqlite"
	DefaultTripTable     = "trips"
	DefaultMaxResultRows = 500
	DefaultPreviewRows   = 10
	DefaultAddr          = ":8080"
	DefaultLogLevel      = "info"
	DefaultOutputDir     = "output"
)

// Server timeouts
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 15 * time.Second
	ChartCacheTTL      = 10 * time.Minute
)

const envPrefix = "BIKESHARE"

// Config holds every setting shared by the bikeshare commands.
type Config struct {
	TripsCSV      string `mapstructure:"trips_csv"`
	SmallCSV      string `mapstructure:"small_csv"`
	AnalyticDB    string `mapstructure:"analytic_db"`
	RelationalDB  string `mapstructure:"relational_db"`
	TripTable     string `mapstructure:"trip_table"`
	MaxResultRows int    `mapstructure:"max_result_rows"`
	PreviewRows   int    `mapstructure:"preview_rows"`
	Addr          string `mapstructure:"addr"`
	LogLevel      string `mapstructure:"log_level"`
	OutputDir     string `mapstructure:"output_dir"`
	ChartCacheDir string `mapstructure:"chart_cache_dir"`
}

// New returns a viper instance with defaults, the environment and an
// optional .env file wired in. Flags are bound by the caller.
func New() *viper.Viper {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to read .env file: %v", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("trips_csv", DefaultTripsCSV)
	v.SetDefault("small_csv", "")
	v.SetDefault("analytic_db", DefaultAnalyticDB)
	v.SetDefault("relational_db", DefaultRelationalDB)
	v.SetDefault("trip_table", DefaultTripTable)
	v.SetDefault("max_result_rows", DefaultMaxResultRows)
	v.SetDefault("preview_rows", DefaultPreviewRows)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("chart_cache_dir", "")
	return v
}

// Load reads the config file (if any) and decodes the settings.
func Load(v *viper.Viper, file string) (Config, error) {
	var cfg Config
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", file)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MaxResultRows <= 0 {
		return errors.Errorf("max_result_rows must be positive, got %d", c.MaxResultRows)
	}
	if c.TripTable == "" {
		return errors.New("trip_table must not be empty")
	}
	if c.RelationalDB == "" || c.AnalyticDB == "" {
		return errors.New("analytic_db and relational_db must be set")
	}
	return nil
}

// SetupLogging configures the global logrus logger.
func SetupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level %q, using %s", level, DefaultLogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
