package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/training-centre-booking/internal/config"
	"github.com/iliyamo/training-centre-booking/internal/database"
	"github.com/iliyamo/training-centre-booking/internal/handler"
	"github.com/iliyamo/training-centre-booking/internal/middleware"
	"github.com/iliyamo/training-centre-booking/internal/queue"
	"github.com/iliyamo/training-centre-booking/internal/repository"
	"github.com/iliyamo/training-centre-booking/internal/router"
	"github.com/iliyamo/training-centre-booking/internal/service"
	"github.com/iliyamo/training-centre-booking/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	config.ConfigureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("migrate schema")
	}

	// A nil *redis.Client must not reach the interface parameters below.
	var (
		cmd     redis.Cmdable
		limiter *middleware.RateLimiter
	)
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		cmd = rdb
		limiter = middleware.NewRateLimiter(cfg.RateLimit, rdb)
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL, cfg.BookingQueue)
	}

	var cache service.OfferingCache
	if c := service.NewRedisOfferingCache(cmd, cfg.Cache); c != nil {
		cache = c
	}

	tx := repository.NewTxManager(db)
	offerings := repository.NewOfferingRepo(db)
	reservations := repository.NewReservationRepo(db)
	carts := repository.NewCartRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	authSvc := service.NewAuthService(tx, users, tokens, service.AuthConfig{
		JWTSecret:        cfg.JWTSecret,
		AccessTTL:        time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL:       time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: cfg.AllowAdminSignup,
	}, nil)
	inventory := service.NewInventory(offerings)
	ledger := service.NewLedger(tx, reservations, inventory, cache, events, nil)
	checkout := service.NewCheckout(tx, carts, offerings, inventory, ledger, cache, events, nil)
	cartSvc := service.NewCartService(tx, carts, offerings)
	directory := service.NewDirectory(tx, offerings, cache)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger())

	guards := router.Guards{Auth: authSvc, Limiter: limiter}
	if cmd != nil {
		guards.ListCache = middleware.ResponseCache(cfg.Cache, cmd)
	}
	router.Register(e, router.Handlers{
		Health:    handler.Health(db),
		Auth:      handler.NewAuthHandler(authSvc),
		Offerings: handler.NewOfferingHandler(directory),
		Bookings:  handler.NewBookingHandler(checkout, ledger),
		Cart:      handler.NewCartHandler(cartSvc, checkout),
	}, guards)

	if cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.BookingQueue, cfg.BookingLogDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	purge := worker.NewTokenPurge(authSvc, cfg.TokenPurge)
	if err := purge.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("start token purge")
	}

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	if err := purge.Stop(); err != nil {
		logrus.WithError(err).Warn("token purge shutdown")
	}
}
