package app

import (
	"flag"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/metinatakli/seat-booking-engine/internal/reservation"
	"github.com/spf13/viper"
)

const envPrefix = "SEATS"

type Config struct {
	Port             int    `validate:"min=1,max=65535"`
	Env              string `validate:"oneof=dev staging prod test"`
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	Booking          BookingConfig
	AMQPURL          string
	OtelCollectorUrl string
	LogFile          string
	ShowVersion      bool
}

type DBConfig struct {
	DSN          string `validate:"required"`
	MaxOpenConns int    `validate:"min=1"`
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string `validate:"required"`
	MaxOpenConns int    `validate:"min=1"`
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessUrl    string `validate:"omitempty,url"`
	FailureUrl    string `validate:"omitempty,url"`
}

type BookingConfig struct {
	HoldTTL     time.Duration `validate:"gt=0"`
	UnitPrice   int64         `validate:"gt=0"`
	Currency    string        `validate:"currency"`
	CASAttempts int           `validate:"min=1,max=10"`
	ClaimLease  time.Duration `validate:"gt=0"`
	CartStore   string        `validate:"oneof=postgres redis"`
}

// LoadConfig reads .env (if present), then SEATS_* environment variables, then
// command line flags; later sources win. The result is validated before use.
func LoadConfig(args []string, v *validator.Validate) (Config, error) {
	_ = godotenv.Load()

	env := viper.New()
	env.SetEnvPrefix(envPrefix)
	env.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	env.AutomaticEnv()

	env.SetDefault("port", 3000)
	env.SetDefault("env", "dev")
	env.SetDefault("db-max-open-conns", 25)
	env.SetDefault("db-max-idle-time", 15*time.Minute)
	env.SetDefault("redis-max-open-conns", 25)
	env.SetDefault("redis-max-idle-conns", 10)
	env.SetDefault("redis-max-idle-time", 2*time.Minute)
	env.SetDefault("smtp-host", "sandbox.smtp.mailtrap.io")
	env.SetDefault("smtp-port", 2525)
	env.SetDefault("smtp-sender", "CineX <no-reply@cinex.metinatakli.net>")
	env.SetDefault("stripe-success-url", "https://example.com/success.html")
	env.SetDefault("stripe-failure-url", "https://example.com/failure.html")
	env.SetDefault("hold-ttl", reservation.DefaultHoldTTL)
	env.SetDefault("unit-price", reservation.DefaultUnitPrice)
	env.SetDefault("currency", reservation.DefaultCurrency)
	env.SetDefault("cas-attempts", reservation.DefaultMaxAttempts)
	env.SetDefault("claim-lease", reservation.DefaultClaimLease)
	env.SetDefault("cart-store", "postgres")

	var cfg Config

	fs := flag.NewFlagSet("seat-booking-engine", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", env.GetInt("port"), "server port")
	fs.StringVar(&cfg.Env, "env", env.GetString("env"), "Environment (dev|staging|prod|test)")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", env.GetString("db-dsn"), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", env.GetInt("db-max-open-conns"), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", env.GetDuration("db-max-idle-time"), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", env.GetString("redis-url"), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", env.GetInt("redis-max-open-conns"), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", env.GetInt("redis-max-idle-conns"), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", env.GetDuration("redis-max-idle-time"), "Redis max idle time for connections")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", env.GetString("smtp-host"), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", env.GetInt("smtp-port"), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", env.GetString("smtp-username"), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", env.GetString("smtp-password"), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", env.GetString("smtp-sender"), "SMTP sender")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", env.GetString("stripe-key"), "Stripe secret key")
	fs.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", env.GetString("stripe-webhook-secret"), "Stripe webhook secret")
	fs.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", env.GetString("stripe-success-url"), "Stripe payment success page")
	fs.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", env.GetString("stripe-failure-url"), "Stripe payment failure page")

	fs.DurationVar(&cfg.Booking.HoldTTL, "hold-ttl", env.GetDuration("hold-ttl"), "How long a seat hold lasts")
	fs.Int64Var(&cfg.Booking.UnitPrice, "unit-price", env.GetInt64("unit-price"), "Price of a single seat in whole currency units")
	fs.StringVar(&cfg.Booking.Currency, "currency", env.GetString("currency"), "Currency of seat prices")
	fs.IntVar(&cfg.Booking.CASAttempts, "cas-attempts", env.GetInt("cas-attempts"), "Read-decide-write attempts per seat operation")
	fs.DurationVar(&cfg.Booking.ClaimLease, "claim-lease", env.GetDuration("claim-lease"), "Time after which an unfinished payment confirmation can be retried")
	fs.StringVar(&cfg.Booking.CartStore, "cart-store", env.GetString("cart-store"), "Session cart backend (postgres|redis)")

	fs.StringVar(&cfg.AMQPURL, "amqp-url", env.GetString("amqp-url"), "RabbitMQ URL for booking events, disabled when empty")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", env.GetString("otel-collector-url"), "OpenTelemetry collector endpoint")
	fs.StringVar(&cfg.LogFile, "log-file", env.GetString("log-file"), "Rotated JSON log file, disabled when empty")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Display version and exit")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	err = v.Struct(cfg)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}
