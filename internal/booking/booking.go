// Package booking implements the client side of the booking submission
// protocol: the initial seat snapshot fetch and the request that converts
// a seat selection into a confirmed booking.  The backend is the final
// arbiter of seat conflicts; this package only reports its verdict.
package booking

// Request is the payload of POST /booking/book.  It is constructed by the
// seat session and owned exclusively by it until sent.
type Request struct {
	UserID     uint64   `json:"userId"`
	ShowID     uint64   `json:"showId"`
	SeatIDs    []uint64 `json:"seatIds"`
	TotalPrice uint32   `json:"totalPrice"`
}

// Result is the server's answer to a booking request.  BookingID may be
// empty; callers must tolerate backends that confirm without an identifier.
type Result struct {
	BookingID string `json:"bookingId"`
}

// APIError is a non-success answer from the backend.  Message carries the
// human-readable reason from the response body when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }
