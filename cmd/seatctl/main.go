// seatctl runs one interactive seat session against a gateway: it joins a
// show's realtime channel, renders the live seat map, selects the
// requested seats and optionally books them, printing the payment
// hand-off on success.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moviebook/seatsync/internal/booking"
	"github.com/moviebook/seatsync/internal/config"
	"github.com/moviebook/seatsync/internal/credentials"
	"github.com/moviebook/seatsync/internal/payment"
	"github.com/moviebook/seatsync/internal/realtime"
	"github.com/moviebook/seatsync/internal/session"
)

func main() {
	cfg := config.LoadClient()

	var (
		show    = flag.String("show", "", "show id to open (required)")
		seats   = flag.String("seats", "", "comma-separated seat ids to select")
		userID  = flag.Uint64("user", 0, "user id when no token is configured")
		apiURL  = flag.String("api", cfg.APIBaseURL, "API base URL")
		wsURL   = flag.String("ws", cfg.SocketURL, "realtime endpoint URL")
		token   = flag.String("token", cfg.Token, "bearer access token")
		watch   = flag.Duration("watch", 0, "observe live updates for this long before booking")
		confirm = flag.Bool("book", false, "confirm the selection as a booking")
	)
	flag.Parse()
	if *show == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	creds := credentials.FromToken(*token)
	if *userID != 0 {
		creds = credentials.Static{ID: *userID, Bearer: *token}
	}

	api := booking.NewClient(*apiURL, *token)

	var ch realtime.Channel
	ch, err := realtime.Dial(ctx, *wsURL)
	if err != nil {
		log.Printf("realtime endpoint unreachable: %v", err)
		ch = realtime.Offline(err)
	}

	pay := payment.Func(func(_ context.Context, pc payment.Context) error {
		if err := pc.Validate(); err != nil {
			return err
		}
		fmt.Printf("\nhand-off to payment: %s\n", pc)
		return nil
	})

	sess, err := session.New(*show, api, ch, creds, pay, session.Options{
		DefaultPriceCents: cfg.DefaultSeatPriceCents,
		Notify:            func(msg string) { fmt.Println("! " + msg) },
	})
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	defer sess.Close()

	if err := sess.Start(ctx); err != nil {
		log.Fatalf("session: %v", err)
	}
	if sess.Degraded() {
		fmt.Println("(degraded: static seat view, no live updates)")
	}

	printSeats(sess)

	for _, raw := range strings.Split(*seats, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			log.Fatalf("invalid seat id %q", raw)
		}
		if sess.Toggle(id) {
			fmt.Printf("selected seat %d\n", id)
		} else {
			fmt.Printf("seat %d is not selectable\n", id)
		}
	}
	fmt.Printf("selection %v, total %d\n", sess.Selection(), sess.Total())

	if *watch > 0 {
		fmt.Printf("watching live updates for %s...\n", *watch)
		time.Sleep(*watch)
		printSeats(sess)
		fmt.Printf("selection %v, total %d\n", sess.Selection(), sess.Total())
	}

	if !*confirm {
		return
	}
	pc, err := sess.Confirm(ctx)
	switch {
	case err == nil:
		fmt.Printf("booked: %s\n", pc)
	case errors.Is(err, session.ErrNotAuthenticated):
		log.Fatalf("not logged in; supply -token or -user")
	default:
		log.Fatalf("booking: %v", err)
	}
}

func printSeats(s *session.Session) {
	fmt.Printf("show %d seats:\n", s.ShowID())
	for _, seat := range s.Seats() {
		state := "free"
		if seat.Booked {
			state = "booked"
		}
		fmt.Printf("  %3d  %-4s %-10s %6d  %s\n",
			seat.ID, seat.SeatNumber, seat.SeatType, seat.PriceOr(session.DefaultSeatPriceCents), state)
	}
}
