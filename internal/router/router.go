package router // package router defines how HTTP routes are registered for the gateway

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/moviebook/seatsync/internal/config"
	"github.com/moviebook/seatsync/internal/handler"
	"github.com/moviebook/seatsync/internal/middleware"
)

// RegisterRoutes wires every endpoint of the gateway:
//
//   GET  /healthz                          – liveness probe
//   GET  /api/shows/:id/seats/available    – full seat snapshot (public)
//   POST /api/booking/book                 – booking submission (JWT, rate limited)
//   GET  /ws                               – realtime seat channel
//
// The booking route sits behind JWT validation and a Redis token bucket;
// rdb may be nil, in which case rate limiting is disabled.
func RegisterRoutes(e *echo.Echo, b *handler.BookingHandler, ws *handler.WSHandler, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/ws", ws.Serve)

	api := e.Group("/api")
	api.GET("/shows/:id/seats/available", b.GetAvailableSeats)

	book := api.Group("/booking")
	book.Use(middleware.JWTAuth(jwtSecret))
	book.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	book.POST("/book", b.Book)
}
