package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moviebook/seatsync/internal/model"
)

// fallbackReason is returned when the backend rejects a booking without a
// usable message in the response body.
const fallbackReason = "booking failed"

// Client talks to the booking backend over HTTP.  BaseURL points at the
// API root (e.g. "https://host/api"); Token, when non-empty, is sent as a
// bearer credential on booking submissions.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a Client with a sane default timeout.  The token may be
// empty; the snapshot endpoint is public and the backend decides whether
// bookings require authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchSeats retrieves the initial seat snapshot for a show via
// GET /shows/{id}/seats/available.
func (c *Client) FetchSeats(ctx context.Context, showID uint64) (model.Snapshot, error) {
	url := fmt.Sprintf("%s/shows/%d/seats/available", c.BaseURL, showID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body, "could not fetch seat data")}
	}
	var seats model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&seats); err != nil {
		return nil, err
	}
	return seats, nil
}

// Book submits a booking request via POST /booking/book.  A non-2xx status
// or transport failure comes back as an error; the *APIError case carries
// the backend's reason.
func (c *Client) Book(ctx context.Context, r Request) (Result, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return Result{}, err
	}
	url := c.BaseURL + "/booking/book"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body, fallbackReason)}
	}
	var res Result
	// An empty or unparsable success body still confirms the booking; the
	// booking identifier is optional by contract.
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil && err != io.EOF {
		return Result{}, nil
	}
	return res, nil
}

// readMessage extracts {"message": ...} from an error body, falling back
// to def when the body is empty or not in the expected shape.
func readMessage(r io.Reader, def string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Message == "" {
		return def
	}
	return body.Message
}
