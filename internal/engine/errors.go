package engine

import "github.com/pkg/errors"

var (
	// ErrInvalidQuantity trade quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidAmount deposit amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNoInstrument no instrument given and none selected.
	ErrNoInstrument = errors.New("no instrument selected")
	// ErrInvalidTradeType trade type is neither buy nor sell.
	ErrInvalidTradeType = errors.New("invalid trade type")
	// ErrEngineStopped the event loop is not running.
	ErrEngineStopped = errors.New("engine stopped")
	// ErrFeedClosed the feed ended the subscription.
	ErrFeedClosed = errors.New("feed subscription closed")
)

// notice texts shown for rejected input
const (
	textInvalidQuantity = "Invalid quantity"
	textInvalidAmount   = "Enter valid amount"
	textDepositOK       = "Deposit successful"
)
