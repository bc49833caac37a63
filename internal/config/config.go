package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type EscrowConfig struct {
	Env          string `yaml:"env" env:"ESCROW_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	Storage      `yaml:"storage"`
	EscrowDB     `yaml:"escrow_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Auth         `yaml:"auth"`
	Mirror       `yaml:"mirror"`
	Callback     `yaml:"callback"`
	Monitor      `yaml:"monitor"`
	Tokens       []Token `yaml:"tokens"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type Storage struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver" env:"ESCROW_STORAGE" env-default:"memory"`
}

type EscrowDB struct {
	Dsn            string `yaml:"dsn" env:"ESCROW_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"ESCROW_MIGRATIONS_PATH" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Enabled bool   `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"escrow-events"`
	GroupID string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"escrow-mirror"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type Mirror struct {
	// Path of the badger directory. Empty disables the in-process mirror.
	Path string `yaml:"path" env:"MIRROR_PATH"`
}

type Callback struct {
	URL     string        `yaml:"url" env:"CALLBACK_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type Monitor struct {
	Interval        time.Duration `yaml:"interval" env-default:"1m"`
	LockedThreshold time.Duration `yaml:"locked_threshold" env-default:"24h"`
}

type Token struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

func (c *EscrowConfig) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.EscrowDB.Dsn == "" {
			return fmt.Errorf("escrow_db.dsn is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Monitor.Interval <= 0 || c.Monitor.LockedThreshold <= 0 {
		return fmt.Errorf("monitor interval and locked_threshold must be positive")
	}
	return nil
}

// Load reads the YAML file at path, applies env overrides and validates the result.
func Load(path string) (*EscrowConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg EscrowConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *EscrowConfig {
	configPath := os.Getenv("ESCROW_CONFIG_PATH")
	if configPath == "" {
		log.Fatalf("ESCROW_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
