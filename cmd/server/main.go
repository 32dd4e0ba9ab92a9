package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/desk-reservation/internal/booking"
	"github.com/iliyamo/desk-reservation/internal/cache"
	"github.com/iliyamo/desk-reservation/internal/config"
	"github.com/iliyamo/desk-reservation/internal/database"
	"github.com/iliyamo/desk-reservation/internal/handler"
	"github.com/iliyamo/desk-reservation/internal/metrics"
	"github.com/iliyamo/desk-reservation/internal/middleware"
	"github.com/iliyamo/desk-reservation/internal/queue"
	"github.com/iliyamo/desk-reservation/internal/repository"
	"github.com/iliyamo/desk-reservation/internal/router"
	"github.com/iliyamo/desk-reservation/internal/tracing"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBConfig)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, "desk-reservation")
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Redis is optional: without it the catalog is read from the database
	// on every request and writes are not rate limited.
	rdb := config.NewRedisClient()
	var deskCache booking.DeskCache
	if c := cache.NewDeskCache(config.LoadCatalogCacheConfig(), rdb); c != nil {
		deskCache = c
	}

	loc := cfg.Location()
	opts := []booking.Option{
		booking.WithClock(func() time.Time { return time.Now().In(loc) }),
		booking.WithMetrics(m),
		booking.WithHistoryDays(cfg.HistoryDays),
	}
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		pub := queue.NewPublisher(qcfg)
		defer pub.Close()
		opts = append(opts, booking.WithEvents(pub))
		go func() {
			if err := queue.NewConsumer(qcfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("event consumer stopped: %v", err)
			}
		}()
	}

	desks := repository.NewDeskRepo(db)
	users := repository.NewUserRepo(db)
	reservations := repository.NewReservationRepo(db)

	catalog := booking.NewCatalog(desks, deskCache)
	ledger := booking.NewLedger(reservations, users, m)
	ctrl := booking.NewController(catalog, ledger, reservations, opts...)
	rec := booking.NewRecommender(catalog, ledger, opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	var writeLimit echo.MiddlewareFunc
	if rdb != nil {
		writeLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}
	router.RegisterRoutes(e, db)
	router.RegisterMetrics(e, prometheus.DefaultGatherer)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterBooking(e, handler.NewBookingHandler(ctrl, rec, catalog, loc, cfg.BookingDays), cfg.JWTSecret, writeLimit)
	router.RegisterAdmin(e, handler.NewAdminHandler(reservations, loc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
