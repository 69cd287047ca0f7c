package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/config"
	"quiz-web-service/internal/infra/bunstore"
	"quiz-web-service/internal/infra/bunstore/migrations"
	"quiz-web-service/internal/infra/memory"
	pgloader "quiz-web-service/internal/infra/postgres"
	redisinfra "quiz-web-service/internal/infra/redis"
)

// keyedStore is a store that can also load answer keys on its own.
type keyedStore interface {
	app.Store
	app.AnswerKeyLoader
}

// deps holds the infrastructure chosen by configuration.
type deps struct {
	store    keyedStore
	keys     app.AnswerKeyRepository
	notifier app.ChangeNotifier
	closers  []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	// the pgx loader must read the database the services write to
	if cfg.Postgres.URL != "" && cfg.Database.Driver != bunstore.DriverPostgres {
		return nil, fmt.Errorf("postgres.url requires database.driver %q, got %q", bunstore.DriverPostgres, cfg.Database.Driver)
	}
	d := &deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	switch driver := cfg.Database.Driver; {
	case driver == "" || driver == "memory":
		log.Printf("using in-memory store")
		d.store = memory.NewStore()
	case isRelational(driver):
		db, err := bunstore.Open(ctx, driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = db.Close() })
		if err := migrations.Apply(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		d.store = bunstore.NewStore(db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	var loader app.AnswerKeyLoader = d.store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect pgx pool: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		loader = pgloader.NewAnswerKeyLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.keys = redisinfra.NewAnswerKeyCache(client, loader, quizTTL)
		d.notifier = redisinfra.NewNotifier(client)
	} else {
		d.keys = memory.NewAnswerKeyCache(loader, quizTTL)
		d.notifier = memory.NewNotifier()
	}

	ok = true
	return d, nil
}
