package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/floorops/restaurant-reservation/internal/availability"
	"github.com/floorops/restaurant-reservation/internal/booking"
	"github.com/floorops/restaurant-reservation/internal/config"
	"github.com/floorops/restaurant-reservation/internal/database"
	"github.com/floorops/restaurant-reservation/internal/floor"
	"github.com/floorops/restaurant-reservation/internal/handler"
	"github.com/floorops/restaurant-reservation/internal/metrics"
	"github.com/floorops/restaurant-reservation/internal/middleware"
	"github.com/floorops/restaurant-reservation/internal/queue"
	"github.com/floorops/restaurant-reservation/internal/repository"
	"github.com/floorops/restaurant-reservation/internal/router"
	queue_publisher "github.com/floorops/restaurant-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "floorops").Logger()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	metrics.Register()

	shiftRepo := repository.NewShiftRepo(db)
	tableRepo := repository.NewTableRepo(db)
	blockRepo := repository.NewBlockRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	userRepo := repository.NewUserRepo(db)
	restaurantRepo := repository.NewRestaurantRepo(db)

	var publish booking.Publisher
	if cfg.AMQPURL != "" {
		publish = queue_publisher.PublishReservationConfirmed(cfg.AMQPURL)
		go queue.StartReservationConsumer(cfg.AMQPURL, log)
	} else {
		log.Warn().Msg("AMQP_URL not set, reservation events disabled")
	}

	manager := booking.NewManager(repository.NewBookingStore(shiftRepo, tableRepo, reservationRepo), publish, log)
	floorSvc := floor.NewService(tableRepo, log)
	engine := availability.NewEngine(shiftRepo, tableRepo, blockRepo, reservationRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	// Redis-backed rate limiting and response caching degrade to no-ops
	// when the client cannot connect.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(userRepo, restaurantRepo, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost),
		Shifts:       handler.NewShiftHandler(shiftRepo, manager),
		Tables:       handler.NewTableHandler(tableRepo, floorSvc, engine),
		Blocks:       handler.NewBlockHandler(blockRepo, tableRepo, shiftRepo),
		Reservations: handler.NewReservationHandler(manager, reservationRepo),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
