package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moviebook/seatsync/internal/payment"
)

func TestValidate(t *testing.T) {
	ok := payment.Context{SelectedSeats: []uint64{1, 2}, TotalPrice: 270, ShowID: 7, BookingID: "B1"}
	assert.NoError(t, ok.Validate())

	// A missing booking ID is tolerated; seats and total are not.
	assert.NoError(t, payment.Context{SelectedSeats: []uint64{1}, TotalPrice: 100, ShowID: 7}.Validate())

	assert.ErrorIs(t, payment.Context{TotalPrice: 270, ShowID: 7}.Validate(), payment.ErrMissingContext)
	assert.ErrorIs(t, payment.Context{SelectedSeats: []uint64{1}, ShowID: 7}.Validate(), payment.ErrMissingContext)
	assert.ErrorIs(t, payment.Context{}.Validate(), payment.ErrMissingContext)
}

func TestLoggerFailsClosedOnDirectNavigation(t *testing.T) {
	// Reaching payment without a confirmed booking yields no context at
	// all; the collaborator must reject rather than guess.
	err := payment.Logger{}.Handoff(context.Background(), payment.Context{})
	assert.ErrorIs(t, err, payment.ErrMissingContext)
}

func TestFuncAdapter(t *testing.T) {
	var got payment.Context
	f := payment.Func(func(_ context.Context, pc payment.Context) error {
		got = pc
		return nil
	})
	in := payment.Context{SelectedSeats: []uint64{3}, TotalPrice: 100, ShowID: 1}
	assert.NoError(t, f.Handoff(context.Background(), in))
	assert.Equal(t, in, got)
}
