package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	App      AppConfig      `mapstructure:"app"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig selects the storage backend. Driver is "mongo" or
// "memory"; the latter keeps everything in process and is meant for local
// development only.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// Enabled reports whether report archiving is configured.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // e.g. "60m", "1h"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	JSON   bool   `mapstructure:"json"`
	Stdout bool   `mapstructure:"stdout"`
}

type AppConfig struct {
	// IANA zone used for students without their own time zone
	DefaultTimezone string `mapstructure:"default_timezone"`
	// base of the student portal links handed to trainers
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// Location loads DefaultTimezone, falling back to UTC.
func (c AppConfig) Location() (*time.Location, error) {
	if c.DefaultTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.DefaultTimezone)
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "coach_app")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.presign_expiry", "15m")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)
	v.SetDefault("app.default_timezone", "America/Sao_Paulo")
	v.SetDefault("app.public_base_url", "http://localhost:8080")
	v.SetDefault("metrics.enabled", true)

	// AutomaticEnv only covers keys viper already knows about
	for _, key := range []string{
		"s3.endpoint", "s3.region", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name",
		"jwt.secret", "log.file", "log.json",
	} {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	err = v.ReadInConfig()
	// A missing file is fine, defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}
