package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedVariant = errors.New("unrecognized ledger variant")
	ErrEmptyDataset        = errors.New("no sales loaded")
	ErrInvalidWindow       = errors.New("moving average window must be positive")
	ErrLoadInProgress      = errors.New("a load is already in progress")
	ErrNoFiles             = errors.New("no csv files in load")
)

// MissingFieldError reports a row without one of the columns every sale must
// carry (item id, item name or date).
type MissingFieldError struct {
	Source string
	Line   int
	Field  string
}

func (e *MissingFieldError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d: missing required field %q", e.Line, e.Field)
	}
	return fmt.Sprintf("%s line %d: missing required field %q", e.Source, e.Line, e.Field)
}

type DateError struct {
	Source string
	Line   int
	Value  string
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s line %d: unparseable date %q", e.Source, e.Line, e.Value)
}

func (e *DateError) Unwrap() error { return e.Err }
