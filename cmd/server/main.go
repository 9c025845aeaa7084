package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinetix/booking-engine/internal/booking"
	"github.com/cinetix/booking-engine/internal/clock"
	"github.com/cinetix/booking-engine/internal/config"
	"github.com/cinetix/booking-engine/internal/database"
	"github.com/cinetix/booking-engine/internal/handler"
	"github.com/cinetix/booking-engine/internal/holdstore"
	"github.com/cinetix/booking-engine/internal/qrtoken"
	"github.com/cinetix/booking-engine/internal/queue"
	"github.com/cinetix/booking-engine/internal/repository"
	"github.com/cinetix/booking-engine/internal/router"
	"github.com/cinetix/booking-engine/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	engCfg := config.LoadEngineConfig()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	// Redis carries holds, sessions, claims and the QR blacklist; the
	// engine cannot run without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}
	defer rdb.Close()

	clk := clock.System{}

	rooms := repository.NewRoomRepository(db)
	movies := repository.NewMovieRepository(db)
	concessions := repository.NewConcessionRepository(db)
	showtimes := repository.NewShowtimeRepository(db)
	slots := repository.NewSlotRepository(db)
	orders := repository.NewOrderRepository(db)

	holds := holdstore.New(rdb)
	sessions := holdstore.NewSessionStore(rdb)

	manager := booking.NewSeatHoldManager(slots, holds, clk, engCfg.HoldTTL)
	sessionSvc := booking.NewSessionService(sessions, concessions, slots, manager, clk, engCfg.SessionTTL)
	checkout := booking.NewCheckoutService(sessions, holds, orders, manager, queue.NewPublisher())
	guard := booking.NewShowtimeGuard(showtimes, rooms, movies, slots, clk)
	qr := qrtoken.New(qrtoken.NewRedisStore(rdb), []byte(cfg.QRSecret), clk,
		time.Duration(engCfg.QRTTLMinutes)*time.Minute,
		time.Duration(engCfg.GraceMinutes)*time.Minute,
		engCfg.QRRegenLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(orders, showtimes, slots, clk, engCfg.SweepInterval, engCfg.StaleOrderAge)
	sw.Start(ctx)
	defer sw.Stop()

	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Seats:     handler.NewSeatHandler(manager),
		Sessions:  handler.NewSessionHandler(sessionSvc),
		Checkout:  handler.NewCheckoutHandler(checkout, orders),
		Showtimes: handler.NewShowtimeHandler(guard),
		Checkin:   handler.NewCheckinHandler(qr, orders, showtimes),
	}, cfg.JWTSecret, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
