package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv        string         `mapstructure:"app_env"`
	AppName       string         `mapstructure:"app_name"`
	PublicBaseURL string         `mapstructure:"public_base_url"`
	Server        ServerConfig   `mapstructure:"server"`
	Database      DatabaseConfig `mapstructure:"database"`
	Auth          AuthConfig     `mapstructure:"auth"`
	AMQP          AMQPConfig     `mapstructure:"amqp"`
	Storage       StorageConfig  `mapstructure:"storage"`
	Minio         MinioConfig    `mapstructure:"minio"`
	NodeID        int64          `mapstructure:"node_id"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type AMQPConfig struct {
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	StaticBaseURL string        `mapstructure:"static_base_url"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
	Bucket    string `mapstructure:"bucket"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("app_name", "suno-approvals")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("node_id", 1)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "suno")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("amqp.url", "")

	v.SetDefault("storage.driver", "static")
	v.SetDefault("storage.static_base_url", "http://localhost:8080/files")
	v.SetDefault("storage.presign_expiry", 15*time.Minute)

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.secure", false)
	v.SetDefault("minio.bucket", "pieces")
}

// Load reads configuration from an optional .env file, an optional
// config.yaml in the working directory and the environment, in increasing
// order of precedence. Keys map to env vars by upper-casing and replacing
// dots, so database.driver is DATABASE_DRIVER.
func Load() (*Config, error) {
	// .env is optional; OS environment variables still apply without it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "static":
	case "minio":
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("storage driver minio requires MINIO_ENDPOINT")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("node_id must be between 0 and 1023, got %d", c.NodeID)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PostgresDSN builds a connection string from the discrete database
// settings unless an explicit DSN was configured.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}
