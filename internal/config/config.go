package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	TxService    TxServiceConfig
	Auth         AuthConfig
	Verification VerificationConfig
}

type ServerConfig struct {
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"3306"`
	User            string        `envconfig:"DB_USER" default:"app"`
	Password        string        `envconfig:"DB_PASSWORD" default:"apppassword"`
	Name            string        `envconfig:"DB_NAME" default:"safe_gateway"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TxServiceConfig struct {
	BaseURL string        `envconfig:"TX_SERVICE_BASE_URL" default:"https://safe-transaction-mainnet.safe.global"`
	Timeout time.Duration `envconfig:"TX_SERVICE_TIMEOUT" default:"10s"`

	// DelegateSource selects where delegate lookups go: "service" proxies the
	// transaction service, "database" reads the local delegates table.
	DelegateSource   string        `envconfig:"DELEGATE_SOURCE" default:"service"`
	DelegateCacheTTL time.Duration `envconfig:"DELEGATE_CACHE_TTL" default:"60s"`
}

type AuthConfig struct {
	NonceTTL    time.Duration `envconfig:"AUTH_NONCE_TTL" default:"10m"`
	TokenTTL    time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	TokenSecret string        `envconfig:"AUTH_TOKEN_SECRET" default:""`
}

// VerificationConfig toggles the hash and signature checks independently for
// each verifier call site. Everything defaults to on; the switches exist for
// staged rollouts against transaction services with known-bad history.
type VerificationConfig struct {
	APIHash           bool `envconfig:"VERIFICATION_API_HASH" default:"true"`
	APISignature      bool `envconfig:"VERIFICATION_API_SIGNATURE" default:"true"`
	ProposalHash      bool `envconfig:"VERIFICATION_PROPOSAL_HASH" default:"true"`
	ProposalSignature bool `envconfig:"VERIFICATION_PROPOSAL_SIGNATURE" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
