package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	APIPort  int    `mapstructure:"apiPort"`
	BasePath string `mapstructure:"basePath"`
	Database struct {
		Type            string `mapstructure:"type"`
		Path            string `mapstructure:"path"`
		Host            string `mapstructure:"host"`
		Port            string `mapstructure:"port"`
		Name            string `mapstructure:"name"`
		User            string `mapstructure:"user"`
		Password        string `mapstructure:"password"`
		SSLMode         string `mapstructure:"sslMode"`
		MaxConns        int    `mapstructure:"maxConns"`
		MaxIdle         int    `mapstructure:"maxIdle"`
		ConnMaxLifetime string `mapstructure:"connMaxLifetime"`
	} `mapstructure:"database"`
	Auth      Auth `mapstructure:"auth"`
	RateLimit struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`
	} `mapstructure:"rateLimit"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	Export Export `mapstructure:"export"`
}

// Auth configures password hashing and bearer token issuance.
type Auth struct {
	TokenPrefix string `mapstructure:"tokenPrefix"`
	BcryptCost  int    `mapstructure:"bcryptCost"`
}

// Export points at the S3-compatible bucket that receives project snapshots.
// Exports are disabled while Bucket is empty.
type Export struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"accessKeyID"`
	SecretAccessKey string        `mapstructure:"secretAccessKey"`
	URLTTL          time.Duration `mapstructure:"urlTTL"`
}

// Enabled reports whether a bucket was configured.
func (e Export) Enabled() bool {
	return e.Bucket != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("apiPort", 8080)
	v.SetDefault("basePath", "/api")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/taskhub.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "taskhub")
	v.SetDefault("database.user", "taskhub")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 0)
	v.SetDefault("database.maxIdle", 0)
	v.SetDefault("database.connMaxLifetime", "")

	v.SetDefault("auth.tokenPrefix", "th_")
	v.SetDefault("auth.bcryptCost", bcrypt.DefaultCost)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 2.0)
	v.SetDefault("rateLimit.burst", 5)

	v.SetDefault("cors.allowedOrigins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("export.endpoint", "")
	v.SetDefault("export.region", "us-east-1")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.accessKeyID", "")
	v.SetDefault("export.secretAccessKey", "")
	v.SetDefault("export.urlTTL", 15*time.Minute)
}

// LoadConfig loads the configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		log.Println("No config file given, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		log.Printf("Unknown database type %q, falling back to sqlite", cfg.Database.Type)
		cfg.Database.Type = "sqlite"
	}

	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		log.Printf("bcrypt cost %d out of range, using default %d", cfg.Auth.BcryptCost, bcrypt.DefaultCost)
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	log.Printf("Configuration loaded: port=%d basePath=%s db=%s export=%v",
		cfg.APIPort, cfg.BasePath, cfg.Database.Type, cfg.Export.Enabled())
	return &cfg, nil
}
