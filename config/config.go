package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Fees     FeeConfig      `mapstructure:"fees"`
	Links    LinkConfig     `mapstructure:"links"`
	Signer   SignerConfig   `mapstructure:"signer"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"` // false = in-memory stores
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"` // false = receipt dedupe disabled
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// WalletConfig identifies the owner's wallet for this client session.
type WalletConfig struct {
	Address string `mapstructure:"address"`
	Label   string `mapstructure:"label"`
}

// FeeConfig holds the proportional settlement fee rates per role.
type FeeConfig struct {
	ConsumerRate string `mapstructure:"consumer_rate"` // e.g. "0.003" = 0.3%
	MerchantRate string `mapstructure:"merchant_rate"` // e.g. "0.0025" = 0.25%
}

// ConsumerRateDecimal parses the consumer rate.
func (f FeeConfig) ConsumerRateDecimal() (decimal.Decimal, error) {
	return parseRate("fees.consumer_rate", f.ConsumerRate)
}

// MerchantRateDecimal parses the merchant rate.
func (f FeeConfig) MerchantRateDecimal() (decimal.Decimal, error) {
	return parseRate("fees.merchant_rate", f.MerchantRate)
}

func parseRate(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", key, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", key, raw)
	}
	return d, nil
}

// LinkConfig controls payment request and share-link encoding.
type LinkConfig struct {
	Scheme string `mapstructure:"scheme"` // payment URI scheme
	Host   string `mapstructure:"host"`   // share-link host
}

// SignerConfig configures the local development signer.
type SignerConfig struct {
	Key string `mapstructure:"key"` // HMAC key for the dev signer
}

// SubmitConfig configures the settlement submission client.
type SubmitConfig struct {
	Endpoint string        `mapstructure:"endpoint"` // empty = loopback submitter
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SHW_ (SilverHand Wallet).
// Nested keys use underscore: SHW_DATABASE_HOST, SHW_FEES_CONSUMER_RATE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "silverhand_wallet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "silverhand-wallet")
	v.SetDefault("wallet.address", "")
	v.SetDefault("wallet.label", "")
	v.SetDefault("fees.consumer_rate", "0.003")
	v.SetDefault("fees.merchant_rate", "0.0025")
	v.SetDefault("links.scheme", "pay")
	v.SetDefault("links.host", "pay.silverhand.io")
	v.SetDefault("signer.key", "")
	v.SetDefault("submit.endpoint", "")
	v.SetDefault("submit.timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SHW_LINKS_HOST -> links.host
	v.SetEnvPrefix("SHW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
