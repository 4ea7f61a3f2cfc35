package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	IShare   IShareConfig
	Paystack PaystackConfig
	Stripe   StripeConfig
	SMS      SMSConfig
	Events   EventsConfig
	Wallet   WalletConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	AllowOrigins string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN returns the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	WalletTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	AccessTTL time.Duration
}

// IShareConfig configures the AT iShare SOAP delivery endpoint.
type IShareConfig struct {
	Enabled      bool
	URL          string
	Username     string
	Password     string
	DealerMSISDN string
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
}

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

type StripeConfig struct {
	SecretKey string
}

type SMSConfig struct {
	Enabled  bool
	BaseURL  string
	APIKey   string
	SenderID string
}

type EventsConfig struct {
	Driver  string
	Brokers []string
	Topic   string
	Channel string
}

type WalletConfig struct {
	Currency string
}

// Load builds the Config from the environment. Call LoadEnv first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         GetEnv("PORT", "3000"),
			Env:          GetEnv("APP_ENV", "development"),
			AllowOrigins: GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Driver:          GetEnv("DB_DRIVER", "postgres"),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", ""),
			Name:            GetEnv("DB_NAME", "bundlehub"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			Path:            GetEnv("DB_PATH", "bundlehub.db"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:      GetEnv("REDIS_HOST", "localhost"),
			Port:      GetEnv("REDIS_PORT", "6379"),
			Password:  GetEnv("REDIS_PASSWORD", ""),
			DB:        GetIntEnv("REDIS_DB", 0),
			WalletTTL: GetDurationEnv("WALLET_CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
			AccessTTL: GetDurationEnv("JWT_ACCESS_TTL", 24*time.Hour),
		},
		IShare: IShareConfig{
			Enabled:      GetBoolEnv("ISHARE_ENABLED", true),
			URL:          GetEnv("ISHARE_URL", ""),
			Username:     GetEnv("ISHARE_USERNAME", ""),
			Password:     GetEnv("ISHARE_PASSWORD", ""),
			DealerMSISDN: GetEnv("ISHARE_DEALER_MSISDN", ""),
			Timeout:      GetDurationEnv("ISHARE_TIMEOUT", 15*time.Second),
			MaxAttempts:  GetIntEnv("ISHARE_MAX_ATTEMPTS", 3),
			BaseDelay:    GetDurationEnv("ISHARE_BASE_DELAY", 2*time.Second),
		},
		Paystack: PaystackConfig{
			SecretKey:   GetEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:     GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: GetEnv("PAYSTACK_CALLBACK_URL", ""),
		},
		Stripe: StripeConfig{
			SecretKey: GetEnv("STRIPE_SECRET_KEY", ""),
		},
		SMS: SMSConfig{
			Enabled:  GetBoolEnv("SMS_ENABLED", false),
			BaseURL:  GetEnv("SMS_BASE_URL", "https://sms.arkesel.com"),
			APIKey:   GetEnv("SMS_API_KEY", ""),
			SenderID: GetEnv("SMS_SENDER_ID", "Bundlehub"),
		},
		Events: EventsConfig{
			Driver:  GetEnv("EVENTS_DRIVER", "none"),
			Brokers: GetListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   GetEnv("KAFKA_TOPIC", "bundlehub.events"),
			Channel: GetEnv("EVENTS_CHANNEL", "bundlehub:events"),
		},
		Wallet: WalletConfig{
			Currency: GetEnv("WALLET_CURRENCY", "GHS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would run with missing secrets.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.IShare.Enabled {
		if c.IShare.URL == "" || c.IShare.Username == "" || c.IShare.Password == "" || c.IShare.DealerMSISDN == "" {
			errs = append(errs, errors.New("ISHARE_URL, ISHARE_USERNAME, ISHARE_PASSWORD and ISHARE_DEALER_MSISDN are required when ISHARE_ENABLED"))
		}
		if c.IShare.MaxAttempts < 1 {
			errs = append(errs, errors.New("ISHARE_MAX_ATTEMPTS must be at least 1"))
		}
	}
	switch c.Events.Driver {
	case "kafka", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported EVENTS_DRIVER %q", c.Events.Driver))
	}
	return errors.Join(errs...)
}
