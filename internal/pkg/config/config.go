package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Cookie  CookieConfig
	Shop    ShopConfig
	Booking BookingConfig
	Stripe  StripeConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret               string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenDuration  string `envconfig:"JWT_ACCESS_TOKEN_DURATION" default:"15m"`
	RefreshTokenDuration string `envconfig:"JWT_REFRESH_TOKEN_DURATION" default:"168h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Lax"`
}

// ShopConfig describes the garage itself. Operating hours live in the
// database per weekday; the timezone applies to every date handled by the
// availability engine.
type ShopConfig struct {
	TimeZone string `envconfig:"SHOP_TIMEZONE" default:"UTC"`
}

type BookingConfig struct {
	// MinLead rejects bookings that start sooner than now+MinLead.
	MinLead time.Duration `envconfig:"BOOKING_MIN_LEAD" default:"30m"`
	// CancelCutoff rejects customer cancellations within this window
	// before the appointment start.
	CancelCutoff time.Duration `envconfig:"BOOKING_CANCEL_CUTOFF" default:"2h"`
	// HorizonDays caps how far ahead availability can be queried and
	// appointments can be booked.
	HorizonDays int `envconfig:"BOOKING_HORIZON_DAYS" default:"90"`
}

type StripeConfig struct {
	// SecretKey is optional: when empty the API runs with a local
	// payment provider that approves everything (dev/test mode).
	SecretKey string `envconfig:"STRIPE_SECRET_KEY" default:""`
	Currency  string `envconfig:"STRIPE_CURRENCY" default:"usd"`
}

type RedisConfig struct {
	// Addr is optional: when empty the rate limiter middleware is not
	// installed.
	Addr       string        `envconfig:"REDIS_ADDR" default:""`
	Password   string        `envconfig:"REDIS_PASSWORD" default:""`
	RateLimit  int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:               "test-secret-key-for-testing-only",
			AccessTokenDuration:  "15m",
			RefreshTokenDuration: "168h",
		},
		Cookie: CookieConfig{
			Domain:   "",
			Secure:   false,
			SameSite: "Lax",
		},
		Shop: ShopConfig{
			TimeZone: "UTC",
		},
		Booking: BookingConfig{
			MinLead:      30 * time.Minute,
			CancelCutoff: 2 * time.Hour,
			HorizonDays:  90,
		},
		Stripe: StripeConfig{
			Currency: "usd",
		},
	}
}
