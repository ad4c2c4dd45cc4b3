package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Archive      ArchiveConfig      `mapstructure:"archive"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Adjudication AdjudicationConfig `mapstructure:"adjudication"`
	Grading      GradingConfig      `mapstructure:"grading"`
	Storage      StorageConfig
	Export       ExportConfig    `mapstructure:"export"`
	Maps         MapsConfig      `mapstructure:"maps"`
	Tracing      TracingConfig   `mapstructure:"tracing"`
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ArchiveConfig points at the MySQL database that mirrors graded and
// adjudicated responses for downstream analysis. Optional.
type ArchiveConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool `mapstructure:"parse_time"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type AdjudicationConfig struct {
	Passcode     string `mapstructure:"passcode"`
	PasscodeHash string `mapstructure:"passcode_hash"` // bcrypt; takes precedence over Passcode
}

type GradingConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	PythonBin       string  `mapstructure:"python_bin"`
	ScriptsDir      string  `mapstructure:"scripts_dir"`
	GeneratorScript string  `mapstructure:"generator_script"`
	GraderScript    string  `mapstructure:"grader_script"`
	ComparerScript  string  `mapstructure:"comparer_script"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type ExportConfig struct {
	DailyEnabled bool   `mapstructure:"daily_enabled"`
	DailyHour    int    `mapstructure:"daily_hour"`
	Timezone     string `mapstructure:"timezone"`
}

type MapsConfig struct {
	Dir string `mapstructure:"dir"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("MAP_SURVEY")
	viper.AutomaticEnv()

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Archive database
	viper.BindEnv("archive.enabled", "ARCHIVE_ENABLED")
	viper.BindEnv("archive.host", "ARCHIVE_HOST")
	viper.BindEnv("archive.port", "ARCHIVE_PORT")
	viper.BindEnv("archive.user", "ARCHIVE_USER")
	viper.BindEnv("archive.password", "ARCHIVE_PASSWORD")
	viper.BindEnv("archive.dbname", "ARCHIVE_NAME")

	// JWT / adjudication gate
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("adjudication.passcode", "ADJUDICATION_PASSCODE")
	viper.BindEnv("adjudication.passcode_hash", "ADJUDICATION_PASSCODE_HASH")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Grading collaborators
	viper.BindEnv("grading.python_bin", "GRADING_PYTHON_BIN")
	viper.BindEnv("grading.scripts_dir", "GRADING_SCRIPTS_DIR")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Grading.Threshold == 0 {
		cfg.Grading.Threshold = 0.85
	}

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
