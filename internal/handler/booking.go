package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviebook/seatsync/internal/model"
	"github.com/moviebook/seatsync/internal/queue"
	"github.com/moviebook/seatsync/internal/repository"
	queue_publisher "github.com/moviebook/seatsync/internal/service"
)

// SeatStore is the inventory surface the handlers need.  *repository.SeatRepo
// satisfies it; tests substitute an in-memory fake.
type SeatStore interface {
	ListByShow(ctx context.Context, showID uint64) (model.Snapshot, error)
	BookSeats(ctx context.Context, userID, showID uint64, seatIDs []uint64) (bookingID uint64, totalCents uint32, err error)
}

// ChangeNotifier is invoked after every committed booking so viewers of
// the show receive a fresh snapshot.
type ChangeNotifier interface {
	SeatsChanged(ctx context.Context, showID uint64)
}

// BookingHandler serves the seat snapshot and booking endpoints.  JWT
// authentication on the booking route is applied by middleware; the
// handler books for the token's subject and rejects bodies that claim a
// different user.
type BookingHandler struct {
	Store   SeatStore
	Notify  ChangeNotifier
	AMQPURL string // empty disables event publishing
}

// NewBookingHandler constructs a BookingHandler.  Store and Notify must
// be non-nil.
func NewBookingHandler(store SeatStore, notify ChangeNotifier, amqpURL string) *BookingHandler {
	if store == nil || notify == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Store: store, Notify: notify, AMQPURL: amqpURL}
}

// GetAvailableSeats handles GET /api/shows/:id/seats/available.  It
// returns the show's full seat snapshot; booked seats are included with
// their flag set so clients can render and reconcile against one total
// view.
func (h *BookingHandler) GetAvailableSeats(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid show id"})
	}
	seats, err := h.Store.ListByShow(c.Request().Context(), showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load seats"})
	}
	return c.JSON(http.StatusOK, seats)
}

// authenticatedUserID extracts the numeric subject the JWT middleware
// stored in the context.  Claims decode as float64 for numeric subjects
// and string otherwise.
func authenticatedUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), true
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	case uint64:
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// Book handles POST /api/booking/book.  The body carries
// {userId, showId, seatIds, totalPrice}; the store re-checks every seat
// under lock and rejects the whole booking when any is taken, making the
// backend the final arbiter of concurrent selections.  The stored prices,
// not the client's total, determine the charge; the token's subject, not
// the body's userId, determines who is charged.
func (h *BookingHandler) Book(c echo.Context) error {
	var body struct {
		UserID     uint64   `json:"userId"`
		ShowID     uint64   `json:"showId"`
		SeatIDs    []uint64 `json:"seatIds"`
		TotalPrice uint32   `json:"totalPrice"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	subject, ok := authenticatedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing authenticated user"})
	}
	if body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "userId is required"})
	}
	if body.UserID != subject {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "userId does not match authenticated user"})
	}
	if body.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid show id"})
	}
	// Deduplicate while preserving order; duplicate IDs must not double
	// charge.
	unique := make([]uint64, 0, len(body.SeatIDs))
	seen := make(map[uint64]struct{}, len(body.SeatIDs))
	for _, id := range body.SeatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "seatIds is required"})
	}

	ctx := c.Request().Context()
	bookingID, total, err := h.Store.BookSeats(ctx, subject, body.ShowID, unique)
	if err != nil {
		var unavail *repository.SeatsUnavailableError
		if errors.As(err, &unavail) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": unavail.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create booking"})
	}

	if body.TotalPrice != total {
		log.Printf("booking %d: client total %d differs from stored total %d", bookingID, body.TotalPrice, total)
	}

	// Authoritative rebroadcast: every viewer of the show gets a fresh
	// snapshot regardless of any client-side echo.
	h.Notify.SeatsChanged(ctx, body.ShowID)

	ev := queue.BookingConfirmedEvent{
		BookingID:   bookingID,
		UserID:      subject,
		ShowID:      body.ShowID,
		SeatIDs:     unique,
		TotalCents:  total,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingConfirmed(pctx, h.AMQPURL, ev)
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"bookingId": strconv.FormatUint(bookingID, 10),
	})
}
