package calculator

import (
	"errors"
	"fmt"
)

// Per-game failures. None of them is fatal to a batch.
var (
	// ErrInvalidOdds: a tier has non-positive stated odds.
	ErrInvalidOdds = errors.New("invalid stated odds")
	// ErrEmptyPopulation: the game has no printed prizes at all.
	ErrEmptyPopulation = errors.New("empty prize population")
	// ErrDepletedGame: the estimated remaining ticket count is zero.
	ErrDepletedGame = errors.New("no tickets remaining")
	// ErrMalformedRow: negative value/count or remaining exceeds original.
	ErrMalformedRow = errors.New("malformed prize row")
	// ErrInvalidPrice: ticket price is not a positive number.
	ErrInvalidPrice = errors.New("invalid ticket price")
)

// RowError ties a failure to the prize tier that caused it.
type RowError struct {
	Row    int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: %v: %s", e.Row, e.Err, e.Reason)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func rowError(row int, err error, format string, args ...any) error {
	return &RowError{Row: row, Reason: fmt.Sprintf(format, args...), Err: err}
}
