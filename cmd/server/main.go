package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tinghir/car-rental-connect/internal/config"
	"github.com/tinghir/car-rental-connect/internal/database"
	"github.com/tinghir/car-rental-connect/internal/gateway"
	"github.com/tinghir/car-rental-connect/internal/handler"
	"github.com/tinghir/car-rental-connect/internal/middleware"
	"github.com/tinghir/car-rental-connect/internal/queue"
	"github.com/tinghir/car-rental-connect/internal/repository"
	"github.com/tinghir/car-rental-connect/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the catalog cache and the rate limiter; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	carRepo := repository.NewCarRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	gw := gateway.NewLocalGateway()

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	carH := handler.NewCarHandler(carRepo, reservationRepo)
	resH := handler.NewReservationHandler(cfg, carRepo, reservationRepo)
	payH := handler.NewPaymentHandler(reservationRepo, paymentRepo, gw)
	adminH := handler.NewAdminHandler(reservationRepo, userRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	var cache echo.MiddlewareFunc
	if rdb != nil {
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, carH, resH, payH, cache)
	router.RegisterCustomer(e, resH, cfg.JWTSecret)
	router.RegisterAdmin(e, carH, resH, payH, adminH, cfg.JWTSecret)

	// Background consumer appending confirmed reservations to logs/.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
