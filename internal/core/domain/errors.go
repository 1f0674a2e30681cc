package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientPayment is returned when an entry payment is below the
	// entrance fee.
	ErrInsufficientPayment = errors.New("payment below entrance fee")
	// ErrRaffleNotOpen is returned when an entry is attempted while a draw is
	// being calculated.
	ErrRaffleNotOpen = errors.New("raffle not open")
	// ErrNotCalculating is returned when a fulfillment arrives for a round
	// that has no pending draw.
	ErrNotCalculating = errors.New("no draw pending")
	// ErrRequestMismatch is returned when a fulfillment carries a request id
	// other than the one recorded at draw time.
	ErrRequestMismatch = errors.New("unknown randomness request")
	// ErrTransferFailed is returned when the prize could not be moved to the
	// winner. The round stays in calculating stage until a retry succeeds.
	ErrTransferFailed = errors.New("prize transfer failed")
	// ErrUnauthorized is returned when a fulfillment comes from anything other
	// than the registered oracle.
	ErrUnauthorized = errors.New("unauthorized oracle callback")
)

// DrawNotReadyError reports why a draw could not be triggered.
type DrawNotReadyError struct {
	Balance uint64
	Players int
	Stage   RaffleStage
}

func (e DrawNotReadyError) Error() string {
	return fmt.Sprintf(
		"draw not ready: balance %d, players %d, stage %s",
		e.Balance, e.Players, e.Stage,
	)
}
