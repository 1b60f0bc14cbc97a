package repository

import (
	"context"
	"database/sql"

	"github.com/moviebook/seatsync/internal/model"
)

// SeatRepo encapsulates database operations on show seats and bookings.
// Booking is the only mutation: seats are provisioned out of band and
// never deleted while their show exists.
type SeatRepo struct {
	db           *sql.DB
	defaultPrice uint32 // substituted for unpriced seats when totalling
}

// NewSeatRepo constructs a SeatRepo.  defaultPrice is applied to seats
// whose price_cents column is NULL or zero when computing booking totals.
func NewSeatRepo(db *sql.DB, defaultPrice uint32) *SeatRepo {
	return &SeatRepo{db: db, defaultPrice: defaultPrice}
}

// ListByShow returns the full seat snapshot of one show, ordered by seat
// ID.  An unknown show yields an empty snapshot.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) (model.Snapshot, error) {
	const q = `SELECT id, seat_number, seat_type, price_cents, is_booked
			   FROM show_seats WHERE show_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := model.Snapshot{}
	for rows.Next() {
		var (
			s     model.Seat
			price sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.SeatType, &price, &s.Booked); err != nil {
			return nil, err
		}
		if price.Valid {
			p := uint32(price.Int64)
			s.Price = &p
		}
		snap = append(snap, s)
	}
	return snap, rows.Err()
}

// BookSeats atomically converts a seat selection into a confirmed
// booking.  The selected rows are locked, re-checked for availability,
// the booking and its seat lines are written, and the booked flags are
// flipped, all in one transaction.  When any seat is already taken (or
// missing from the show) the whole booking is rejected with a
// *SeatsUnavailableError naming the conflicts — the server is the final
// arbiter of races between concurrent viewers.
//
// The returned total is computed from stored prices, not trusted from the
// request.
func (r *SeatRepo) BookSeats(ctx context.Context, userID, showID uint64, seatIDs []uint64) (bookingID uint64, totalCents uint32, err error) {
	if len(seatIDs) == 0 {
		return 0, 0, &SeatsUnavailableError{}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the requested rows for the duration of the transaction so two
	// overlapping bookings serialize here.
	query := `SELECT id, is_booked, price_cents FROM show_seats WHERE show_id = ? AND id IN (`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showID)
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	prices := make(map[uint64]uint32, len(seatIDs))
	var unavailable []uint64
	for rows.Next() {
		var (
			id     uint64
			booked bool
			price  sql.NullInt64
		)
		if err := rows.Scan(&id, &booked, &price); err != nil {
			rows.Close()
			return 0, 0, err
		}
		if booked {
			unavailable = append(unavailable, id)
			continue
		}
		if price.Valid && price.Int64 > 0 {
			prices[id] = uint32(price.Int64)
		} else {
			prices[id] = r.defaultPrice
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	for _, id := range seatIDs {
		if _, ok := prices[id]; !ok {
			found := false
			for _, u := range unavailable {
				if u == id {
					found = true
					break
				}
			}
			if !found {
				unavailable = append(unavailable, id) // not part of this show
			}
		}
	}
	if len(unavailable) > 0 {
		return 0, 0, &SeatsUnavailableError{SeatIDs: unavailable}
	}

	for _, id := range seatIDs {
		totalCents += prices[id]
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, show_id, total_cents) VALUES (?, ?, ?)`,
		userID, showID, totalCents)
	if err != nil {
		return 0, 0, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}
	bookingID = uint64(newID)

	ins := `INSERT INTO booking_seats (booking_id, seat_id, price_cents) VALUES `
	insArgs := make([]interface{}, 0, len(seatIDs)*3)
	for i, id := range seatIDs {
		if i > 0 {
			ins += ","
		}
		ins += "(?, ?, ?)"
		insArgs = append(insArgs, bookingID, id, prices[id])
	}
	if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
		return 0, 0, err
	}

	upd := `UPDATE show_seats SET is_booked = 1 WHERE show_id = ? AND id IN (`
	updArgs := make([]interface{}, 0, len(seatIDs)+1)
	updArgs = append(updArgs, showID)
	for i, id := range seatIDs {
		if i > 0 {
			upd += ","
		}
		upd += "?"
		updArgs = append(updArgs, id)
	}
	upd += ")"
	if _, err := tx.ExecContext(ctx, upd, updArgs...); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return bookingID, totalCents, nil
}
