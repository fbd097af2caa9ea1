package integration_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const migrationsSource = "file://../../migrations"

// containers holds the Postgres and Redis instances shared by a suite.
type containers struct {
	postgres  *postgres.PostgresContainer
	redis     *tcredis.RedisContainer
	dbDSN     string
	redisAddr string
}

func startContainers(ctx context.Context) (*containers, error) {
	c := &containers{}

	err := c.startPostgres(ctx)
	if err != nil {
		return nil, err
	}

	err = c.startRedis(ctx)
	if err != nil {
		c.terminate()
		return nil, err
	}

	return c, nil
}

func (c *containers) startPostgres(ctx context.Context) error {
	dsnAt := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			dbUser, dbPassword, host, port.Port(), dbName)
	}

	container, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_INITDB_ARGS": "--data-checksums",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForSQL("5432/tcp", "pgx", dsnAt),
			).WithDeadline(60*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("start postgres container: %w", err)
	}
	c.postgres = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("postgres connection string: %w", err)
	}
	c.dbDSN = dsn

	err = migrateUp(dsn)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (c *containers) startRedis(ctx context.Context) error {
	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return fmt.Errorf("start redis container: %w", err)
	}
	c.redis = container

	// The application dials a bare host:port, not a redis:// URL.
	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		return fmt.Errorf("redis endpoint: %w", err)
	}
	c.redisAddr = addr

	return nil
}

func (c *containers) terminate() error {
	var errs []error

	if c.postgres != nil {
		errs = append(errs, testcontainers.TerminateContainer(c.postgres))
	}
	if c.redis != nil {
		errs = append(errs, testcontainers.TerminateContainer(c.redis))
	}

	return errors.Join(errs...)
}

func migrateUp(dsn string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsSource, "pgx", driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
