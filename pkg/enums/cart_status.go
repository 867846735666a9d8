package enums

import "fmt"

// CartStatus tracks a cart through its lifecycle. Values are persisted as
// smallint, so the numeric mapping is part of the wire contract.
type CartStatus int16

const (
	CartStatusActive     CartStatus = 1
	CartStatusLocked     CartStatus = 2
	CartStatusCheckedOut CartStatus = 3
	CartStatusCancelled  CartStatus = 4
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusLocked,
	CartStatusCheckedOut,
	CartStatusCancelled,
}

// cartTransitions is the full lifecycle table. Statuses absent from the map
// are terminal.
var cartTransitions = map[CartStatus][]CartStatus{
	CartStatusActive: {CartStatusLocked, CartStatusCancelled},
	CartStatusLocked: {CartStatusCheckedOut},
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	switch c {
	case CartStatusActive:
		return "active"
	case CartStatusLocked:
		return "locked"
	case CartStatusCheckedOut:
		return "checked_out"
	case CartStatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("unknown(%d)", int16(c))
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (c CartStatus) IsTerminal() bool {
	return c.IsValid() && len(cartTransitions[c]) == 0
}

// CanTransitionTo reports whether the lifecycle table allows moving to next.
// Self-transitions and moves out of a terminal status are rejected.
func (c CartStatus) CanTransitionTo(next CartStatus) bool {
	for _, candidate := range cartTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw numeric input into a CartStatus.
func ParseCartStatus(value int) (CartStatus, error) {
	status := CartStatus(value)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid cart status %d", value)
	}
	return status, nil
}
