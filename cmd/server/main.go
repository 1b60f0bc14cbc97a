package main // gateway entry point

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/moviebook/seatsync/internal/config"
	"github.com/moviebook/seatsync/internal/database"
	"github.com/moviebook/seatsync/internal/handler"
	"github.com/moviebook/seatsync/internal/queue"
	"github.com/moviebook/seatsync/internal/realtime"
	"github.com/moviebook/seatsync/internal/repository"
	"github.com/moviebook/seatsync/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	repo := repository.NewSeatRepo(db, cfg.DefaultSeatPriceCents)

	// Hub broadcasts re-read the inventory, so viewers only ever see
	// committed state.
	hub := realtime.NewHub(repo.ListByShow)
	rdb := config.NewRedisClient() // nil disables fan-out and rate limiting
	if rdb == nil {
		log.Printf("redis unavailable; running single-instance fan-out")
	}
	notifier := realtime.NewNotifier(hub, rdb)
	go notifier.RunFanout(context.Background())

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartBookingConsumer(cfg.AMQPURL); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	}

	b := handler.NewBookingHandler(repo, notifier, cfg.AMQPURL)
	ws := handler.NewWSHandler(hub, notifier)

	e := echo.New()
	router.RegisterRoutes(e, b, ws, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
