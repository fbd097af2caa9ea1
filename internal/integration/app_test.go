package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-booking-engine/internal/app"
	"github.com/metinatakli/seat-booking-engine/internal/clock"
	"github.com/metinatakli/seat-booking-engine/internal/mailer"
	"github.com/metinatakli/seat-booking-engine/internal/mocks"
	"github.com/metinatakli/seat-booking-engine/internal/notify"
	"github.com/metinatakli/seat-booking-engine/internal/repository"
	appvalidator "github.com/metinatakli/seat-booking-engine/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App     *app.Application
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Mailer  *mailer.MockMailer
	Gateway *mocks.MockPaymentProvider
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()
	mailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	movieRepo := repository.NewPostgresMovieRepository(db)
	seatRepo := repository.NewPostgresSeatRepository(db)
	cartStore := repository.NewPostgresCartStore(db)
	checkoutRepo := repository.NewPostgresCheckoutRepository(db)
	ledger := repository.NewPostgresBookingLedger(db)

	paymentProvider := new(mocks.MockPaymentProvider)

	application := app.NewApp(
		cfg,
		logger,
		redisClient,
		validator,
		sessionManager,
		clock.Real{},
		movieRepo,
		seatRepo,
		cartStore,
		checkoutRepo,
		ledger,
		paymentProvider,
		notify.NewMulti(logger, notify.NewMail(mailer, logger)),
	)

	return &TestApp{
		App:     application,
		DB:      db,
		Redis:   redisClient,
		Mailer:  mailer,
		Gateway: paymentProvider,
	}, nil
}

func (a *TestApp) Close() {
	a.Redis.Close()
	a.DB.Close()
}
