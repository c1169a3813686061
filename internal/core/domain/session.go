package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

// SessionState represents the lifecycle state of a parking session.
type SessionState string

const (
	SessionOpen   SessionState = "OPEN"
	SessionClosed SessionState = "CLOSED"
)

// validTransitions defines the allowed state machine transitions. CLOSED is
// terminal.
var validTransitions = map[SessionState][]SessionState{
	SessionOpen: {SessionClosed},
}

// CanTransitionTo reports whether a transition from current state to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParkingSession is one vehicle stay, from check-in to check-out. ExitTime,
// Fee and Discount are all null while the session is open and all set once it
// is closed.
type ParkingSession struct {
	ID        string
	Receipt   string
	Plate     string
	Make      string
	Model     string
	Color     string
	EntryTime time.Time
	ExitTime  null.Time
	Fee       decimal.NullDecimal
	Discount  decimal.NullDecimal
	Client    *Client
	Spot      *ParkingSpot
	Audit
}

func (s *ParkingSession) State() SessionState {
	if s.ExitTime.Valid {
		return SessionClosed
	}
	return SessionOpen
}

// Close sets the exit data of an open session.
func (s *ParkingSession) Close(exit time.Time, fee, discount decimal.Decimal) error {
	if !s.State().CanTransitionTo(SessionClosed) {
		return ErrSessionNotFound
	}
	if exit.Before(s.EntryTime) {
		return ErrInvalidDuration
	}
	s.ExitTime = null.TimeFrom(exit)
	s.Fee = decimal.NewNullDecimal(fee)
	s.Discount = decimal.NewNullDecimal(discount)
	return nil
}

// AmountDue is the fee minus the discount, or zero for an open session.
func (s *ParkingSession) AmountDue() decimal.Decimal {
	if !s.Fee.Valid {
		return decimal.Zero
	}
	return s.Fee.Decimal.Sub(s.Discount.Decimal)
}
