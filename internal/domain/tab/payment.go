package tab

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
)

// FeeMode distinguishes flat and percentage fee rules
type FeeMode string

const (
	FeeModeFlat    FeeMode = "FLAT"
	FeeModePercent FeeMode = "PERCENT"
)

// FeeRule describes the fee charged on a payment. Destination-level rules
// take priority over method-level rules; resolution happens in the
// application layer.
type FeeRule struct {
	Mode  FeeMode
	Value decimal.Decimal
}

// ComputeFee returns the fee for the given gross amount
func (r FeeRule) ComputeFee(amount decimal.Decimal) decimal.Decimal {
	switch r.Mode {
	case FeeModePercent:
		return amount.Mul(r.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return r.Value
	}
}

// Payment is a settled payment recorded against a tab. Payments are
// append-only: amounts and fees are fixed at creation and never recomputed.
type Payment struct {
	shared.BaseEntity
	TabID         uuid.UUID
	Method        string
	MethodID      *uuid.UUID
	DestinationID *uuid.UUID
	Amount        decimal.Decimal
	FeeAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	ReceivedBy    uuid.UUID
	ReceivedAt    time.Time
}

// NewPayment creates a payment, computing the fee once from the resolved
// rule. Either a declared method name or a method reference must be given.
func NewPayment(tabID uuid.UUID, method string, methodID, destinationID *uuid.UUID, amount valueobject.Money, rule *FeeRule, receivedBy uuid.UUID) (*Payment, error) {
	if method == "" && methodID == nil {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment requires a method or a method reference")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECEIVER", "Payment receiver cannot be empty")
	}

	fee := decimal.Zero
	if rule != nil {
		fee = rule.ComputeFee(amount.Amount())
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		TabID:         tabID,
		Method:        method,
		MethodID:      methodID,
		DestinationID: destinationID,
		Amount:        amount.Amount(),
		FeeAmount:     fee,
		NetAmount:     amount.Amount().Sub(fee),
		ReceivedBy:    receivedBy,
		ReceivedAt:    time.Now(),
	}, nil
}

// Paid returns the amount this payment counts toward settling the tab.
// Rows persisted without a net amount fall back to the gross amount when
// loaded, so NetAmount is always meaningful here.
func (p *Payment) Paid() decimal.Decimal {
	return p.NetAmount
}
