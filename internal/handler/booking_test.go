package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviebook/seatsync/internal/handler"
	"github.com/moviebook/seatsync/internal/model"
	"github.com/moviebook/seatsync/internal/repository"
)

func price(v uint32) *uint32 { return &v }

// memStore is an in-memory seat inventory with the same conflict
// semantics as the SQL repository.
type memStore struct {
	seats      map[uint64]model.Snapshot // showID -> seats
	nextID     uint64
	lastBooked []uint64
	lastUser   uint64
}

func newMemStore() *memStore {
	return &memStore{
		seats: map[uint64]model.Snapshot{
			7: {
				{ID: 1, SeatNumber: "A1", SeatType: "STANDARD", Price: price(150)},
				{ID: 2, SeatNumber: "A2", SeatType: "STANDARD", Price: price(120)},
				{ID: 3, SeatNumber: "A3", SeatType: "VIP", Booked: true},
			},
		},
		nextID: 100,
	}
}

func (m *memStore) ListByShow(_ context.Context, showID uint64) (model.Snapshot, error) {
	return m.seats[showID], nil
}

func (m *memStore) BookSeats(_ context.Context, userID, showID uint64, seatIDs []uint64) (uint64, uint32, error) {
	snap := m.seats[showID].Index()
	var unavailable []uint64
	var total uint32
	for _, id := range seatIDs {
		seat, ok := snap[id]
		if !ok || seat.Booked {
			unavailable = append(unavailable, id)
			continue
		}
		total += seat.PriceOr(100)
	}
	if len(unavailable) > 0 {
		return 0, 0, &repository.SeatsUnavailableError{SeatIDs: unavailable}
	}
	for i := range m.seats[showID] {
		for _, id := range seatIDs {
			if m.seats[showID][i].ID == id {
				m.seats[showID][i].Booked = true
			}
		}
	}
	m.nextID++
	m.lastBooked = seatIDs
	m.lastUser = userID
	return m.nextID, total, nil
}

type recordNotifier struct {
	changed []uint64
}

func (n *recordNotifier) SeatsChanged(_ context.Context, showID uint64) {
	n.changed = append(n.changed, showID)
}

// doRequest invokes a handler directly.  subject, when non-nil, is stored
// as the context's user_id the way the JWT middleware stores a verified
// token subject.
func doRequest(h echo.HandlerFunc, method, target, body string, params map[string]string, subject interface{}) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	if subject != nil {
		c.Set("user_id", subject)
	}
	_ = h(c)
	return rec
}

func TestGetAvailableSeats(t *testing.T) {
	h := handler.NewBookingHandler(newMemStore(), &recordNotifier{}, "")

	rec := doRequest(h.GetAvailableSeats, http.MethodGet, "/api/shows/7/seats/available", "", map[string]string{"id": "7"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var seats model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	require.Len(t, seats, 3)
	assert.True(t, seats[2].Booked) // booked seats stay in the snapshot
}

func TestGetAvailableSeatsInvalidID(t *testing.T) {
	h := handler.NewBookingHandler(newMemStore(), &recordNotifier{}, "")
	rec := doRequest(h.GetAvailableSeats, http.MethodGet, "/api/shows/x/seats/available", "", map[string]string{"id": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookSuccessNotifiesViewers(t *testing.T) {
	store := newMemStore()
	notifier := &recordNotifier{}
	h := handler.NewBookingHandler(store, notifier, "")

	rec := doRequest(h.Book, http.MethodPost, "/api/booking/book",
		`{"userId":9,"showId":7,"seatIds":[1,2,2],"totalPrice":270}`, nil, float64(9))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		BookingID string `json:"bookingId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.BookingID)

	assert.Equal(t, []uint64{1, 2}, store.lastBooked) // duplicate seat id collapsed
	assert.Equal(t, uint64(9), store.lastUser)
	assert.Equal(t, []uint64{7}, notifier.changed)
}

// The token subject is the acting user; a body claiming someone else is
// rejected before the store is touched.
func TestBookRejectsMismatchedUser(t *testing.T) {
	store := newMemStore()
	notifier := &recordNotifier{}
	h := handler.NewBookingHandler(store, notifier, "")

	rec := doRequest(h.Book, http.MethodPost, "/api/booking/book",
		`{"userId":999,"showId":7,"seatIds":[1],"totalPrice":150}`, nil, "9")
	require.Equal(t, http.StatusForbidden, rec.Code)

	assert.Zero(t, store.lastUser)
	assert.Empty(t, store.lastBooked)
	assert.Empty(t, notifier.changed)
}

func TestBookWithoutAuthenticatedUser(t *testing.T) {
	store := newMemStore()
	h := handler.NewBookingHandler(store, &recordNotifier{}, "")

	rec := doRequest(h.Book, http.MethodPost, "/api/booking/book",
		`{"userId":9,"showId":7,"seatIds":[1],"totalPrice":150}`, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.lastBooked)
}

// String subjects (tokens whose sub claim is a string) resolve the same
// way numeric ones do.
func TestBookStringSubject(t *testing.T) {
	store := newMemStore()
	h := handler.NewBookingHandler(store, &recordNotifier{}, "")

	rec := doRequest(h.Book, http.MethodPost, "/api/booking/book",
		`{"userId":9,"showId":7,"seatIds":[1],"totalPrice":150}`, nil, "9")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint64(9), store.lastUser)
}

func TestBookConflictReturnsSeatList(t *testing.T) {
	store := newMemStore()
	notifier := &recordNotifier{}
	h := handler.NewBookingHandler(store, notifier, "")

	rec := doRequest(h.Book, http.MethodPost, "/api/booking/book",
		`{"userId":9,"showId":7,"seatIds":[1,3],"totalPrice":250}`, nil, float64(9))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "unavailable")
	assert.Contains(t, body.Message, "3")

	// An all-or-nothing rejection: seat 1 stays free and no broadcast
	// goes out.
	seats, _ := store.ListByShow(context.Background(), 7)
	assert.False(t, seats.Index()[1].Booked)
	assert.Empty(t, notifier.changed)
}

func TestBookValidation(t *testing.T) {
	h := handler.NewBookingHandler(newMemStore(), &recordNotifier{}, "")

	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"showId":7,"seatIds":[1]}`},
		{"missing show", `{"userId":9,"seatIds":[1]}`},
		{"empty seats", `{"userId":9,"showId":7,"seatIds":[]}`},
		{"zero seat ids only", `{"userId":9,"showId":7,"seatIds":[0]}`},
		{"malformed body", `{"userId":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(h.Book, http.MethodPost, "/api/booking/book", tc.body, nil, float64(9))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
