package tab

// TabStatus represents the status of a tab
type TabStatus string

const (
	TabStatusOpen           TabStatus = "OPEN"
	TabStatusInService      TabStatus = "IN_SERVICE"
	TabStatusWaitingPayment TabStatus = "WAITING_PAYMENT"
	TabStatusClosed         TabStatus = "CLOSED"
	TabStatusCanceled       TabStatus = "CANCELED"
)

// IsValid checks if the status is a valid TabStatus
func (s TabStatus) IsValid() bool {
	switch s {
	case TabStatusOpen, TabStatusInService, TabStatusWaitingPayment, TabStatusClosed, TabStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of TabStatus
func (s TabStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that end the tab lifecycle
func (s TabStatus) IsTerminal() bool {
	return s == TabStatusClosed || s == TabStatusCanceled
}

// CanTransitionTo checks if the status can transition to the target status.
// CLOSED -> WAITING_PAYMENT is the reopen transition and is permission-gated
// at the operation level.
func (s TabStatus) CanTransitionTo(target TabStatus) bool {
	switch s {
	case TabStatusOpen:
		return target == TabStatusInService || target == TabStatusWaitingPayment || target == TabStatusCanceled
	case TabStatusInService:
		return target == TabStatusWaitingPayment || target == TabStatusCanceled
	case TabStatusWaitingPayment:
		return target == TabStatusClosed || target == TabStatusCanceled
	case TabStatusClosed:
		return target == TabStatusWaitingPayment
	case TabStatusCanceled:
		return false
	}
	return false
}
