package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/domain"
	"github.com/metinatakli/seat-booking-engine/internal/mailer"
	"github.com/metinatakli/seat-booking-engine/internal/notify"
	"github.com/metinatakli/seat-booking-engine/internal/payment"
	"github.com/metinatakli/seat-booking-engine/internal/repository"
	"github.com/metinatakli/seat-booking-engine/internal/reservation"
	appvalidator "github.com/metinatakli/seat-booking-engine/internal/validator"
	"github.com/metinatakli/seat-booking-engine/internal/vcs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/stripe/stripe-go/v82"
)

const serviceName = "seat-booking-engine"

var (
	version = vcs.Version()
)

type Application struct {
	config         Config
	logger         *slog.Logger
	redis          redis.UniversalClient
	validator      *validator.Validate
	sessionManager *scs.SessionManager
	clock          clock.Clock

	movieRepo domain.MovieRepository
	holds     *reservation.HoldManager
	cart      *reservation.Cart
	checkout  *reservation.Checkout

	paymentProvider domain.PaymentGateway
	notifier        domain.Notifier

	background sync.WaitGroup
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	sessionManager *scs.SessionManager,
	clk clock.Clock,
	movieRepo domain.MovieRepository,
	seatStore domain.SeatStore,
	cartStore domain.CartStore,
	checkoutRepo domain.CheckoutRepository,
	ledger domain.BookingLedger,
	paymentProvider domain.PaymentGateway,
	notifier domain.Notifier) *Application {

	holds := reservation.NewHoldManager(
		seatStore,
		clk,
		logger,
		reservation.WithHoldTTL(cfg.Booking.HoldTTL),
		reservation.WithMaxAttempts(cfg.Booking.CASAttempts),
	)

	cart := reservation.NewCart(cartStore, holds, logger)

	checkout := reservation.NewCheckout(reservation.CheckoutDeps{
		Seats:     seatStore,
		Holds:     holds,
		Cart:      cart,
		Checkouts: checkoutRepo,
		Ledger:    ledger,
		Movies:    movieRepo,
		Gateway:   paymentProvider,
		Clock:     clk,
		Logger:    logger,
	}, reservation.CheckoutConfig{
		UnitPrice:  cfg.Booking.UnitPrice,
		Currency:   cfg.Booking.Currency,
		ClaimLease: cfg.Booking.ClaimLease,
	})

	return &Application{
		config:          cfg,
		logger:          logger,
		redis:           redisClient,
		validator:       validator,
		sessionManager:  sessionManager,
		clock:           clk,
		movieRepo:       movieRepo,
		holds:           holds,
		cart:            cart,
		checkout:        checkout,
		paymentProvider: paymentProvider,
		notifier:        notifier,
	}
}

func Run() error {
	validator := appvalidator.NewValidator()

	cfg, err := LoadConfig(os.Args[1:], validator)
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	stripe.Key = cfg.Stripe.SecretKey

	bootstrap := &Application{config: cfg, logger: slog.New(slog.NewTextHandler(os.Stdout, nil))}

	shutdownTelemetry, err := bootstrap.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	logger, closeLog := NewLogger(cfg)
	defer closeLog()

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var cartStore domain.CartStore = repository.NewPostgresCartStore(db)
	if cfg.Booking.CartStore == "redis" {
		cartStore = repository.NewRedisCartStore(redisClient, repository.DefaultCartTTL)
	}

	notifiers := []domain.Notifier{
		notify.NewMail(mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender), logger),
	}
	if cfg.AMQPURL != "" {
		notifiers = append(notifiers, notify.NewAMQP(cfg.AMQPURL, logger))
	}

	app := NewApp(
		cfg,
		logger,
		redisClient,
		validator,
		NewSessionManager(redisClient),
		clock.Real{},
		repository.NewPostgresMovieRepository(db),
		repository.NewPostgresSeatRepository(db),
		cartStore,
		repository.NewPostgresCheckoutRepository(db),
		repository.NewPostgresBookingLedger(db),
		payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl, cfg.Stripe.WebhookSecret),
		notify.NewMulti(logger, notifiers...),
	)

	return app.run()
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		app.logger.Info("completing background tasks", "addr", srv.Addr)

		app.WaitForBackgroundTasks()
		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

// WaitForBackgroundTasks blocks until notifications started by handlers have
// finished.
func (app *Application) WaitForBackgroundTasks() {
	app.background.Wait()
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Called by the payment provider, which carries no browser session.
	r.Post("/webhook", app.PaymentWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(app.ensureGuestUserSession)
		r.Use(app.requestLogger)

		r.Get("/movies/{movieId}/seats", app.GetSeatMapHandler)
		r.Post("/movies/{movieId}/holds", app.HoldSeatsHandler)
		r.Post("/movies/{movieId}/checkout", app.CreateCheckoutSessionHandler)

		r.Route("/seats/{seatId}", func(r chi.Router) {
			r.Post("/hold", app.HoldSeatHandler)
			r.Delete("/hold", app.ReleaseSeatHandler)
			r.Post("/toggle", app.ToggleSeatHandler)
		})

		r.Get("/cart", app.GetCartHandler)
		r.Delete("/cart", app.DeleteCartHandler)

		r.Get("/payment/cancel", app.PaymentCancelHandler)
	})

	return r
}
