package tab

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
)

// Card number bounds. A card (slot) number identifies the physical card
// handed to the client; it must be unique among non-terminal tabs per
// tenant and is freed once the tab reaches a terminal state.
const (
	MinCardNumber = 1
	MaxCardNumber = 999
)

// ValidateCardNumber checks that a card number is within the usable range
func ValidateCardNumber(number int) error {
	if number < MinCardNumber || number > MaxCardNumber {
		return shared.NewDomainError("INVALID_CARD_NUMBER",
			fmt.Sprintf("Card number must be between %d and %d", MinCardNumber, MaxCardNumber))
	}
	return nil
}

// Tab is the aggregate root for a running order: it owns its line items,
// payments and audit events, drives the lifecycle state machine and keeps
// the financial totals consistent. Totals are only ever written by
// recalculateTotals.
type Tab struct {
	shared.TenantAggregateRoot
	CardNumber    int
	ClientID      *uuid.UUID
	AppointmentID *uuid.UUID
	Status        TabStatus

	Gross          decimal.Decimal
	ItemDiscounts  decimal.Decimal
	ManualDiscount decimal.Decimal
	TotalDiscounts decimal.Decimal
	Net            decimal.Decimal

	Notes string

	OpenedBy        uuid.UUID
	ServiceClosedAt *time.Time
	ServiceClosedBy *uuid.UUID
	CashierClosedAt *time.Time
	CashierClosedBy *uuid.UUID
	CanceledAt      *time.Time
	CanceledBy      *uuid.UUID
	CancelReason    string

	Items    []LineItem
	Payments []Payment
}

// NewTab opens a new tab on the given card number
func NewTab(tenantID uuid.UUID, cardNumber int, openedBy uuid.UUID, clientID, appointmentID *uuid.UUID) (*Tab, error) {
	if err := ValidateCardNumber(cardNumber); err != nil {
		return nil, err
	}
	if openedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPENER", "Opener cannot be empty")
	}

	return &Tab{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, openedBy),
		CardNumber:          cardNumber,
		ClientID:            clientID,
		AppointmentID:       appointmentID,
		Status:              TabStatusOpen,
		Gross:               decimal.Zero,
		ItemDiscounts:       decimal.Zero,
		ManualDiscount:      decimal.Zero,
		TotalDiscounts:      decimal.Zero,
		Net:                 decimal.Zero,
		OpenedBy:            openedBy,
		Items:               make([]LineItem, 0),
		Payments:            make([]Payment, 0),
	}, nil
}

// IsTerminal returns true once the tab is closed or canceled
func (t *Tab) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// ServiceClosed returns true once the service-close consumption pass ran
func (t *Tab) ServiceClosed() bool {
	return t.ServiceClosedAt != nil
}

// AddItem appends a line item. Items require client attribution, so a
// linked client is mandatory. Adding the first work to an OPEN tab moves
// it to IN_SERVICE.
func (t *Tab) AddItem(item *LineItem) error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot add items to a %s tab", t.Status))
	}
	if t.ClientID == nil {
		return shared.NewDomainError("NO_CLIENT", "Tab must have a linked client before adding items")
	}

	item.TabID = t.ID
	t.Items = append(t.Items, *item)

	if t.Status == TabStatusOpen {
		t.Status = TabStatusInService
	}
	t.recalculateTotals()
	t.UpdatedAt = time.Now()
	return nil
}

// Item returns a line item by ID, or nil
func (t *Tab) Item(itemID uuid.UUID) *LineItem {
	for idx := range t.Items {
		if t.Items[idx].ID == itemID {
			return &t.Items[idx]
		}
	}
	return nil
}

// ActiveItems returns the non-canceled line items
func (t *Tab) ActiveItems() []*LineItem {
	active := make([]*LineItem, 0, len(t.Items))
	for idx := range t.Items {
		if t.Items[idx].IsActive() {
			active = append(active, &t.Items[idx])
		}
	}
	return active
}

// ActiveServiceItems returns the non-canceled SERVICE line items
func (t *Tab) ActiveServiceItems() []*LineItem {
	items := make([]*LineItem, 0)
	for idx := range t.Items {
		if t.Items[idx].IsActive() && t.Items[idx].Kind == ItemKindService {
			items = append(items, &t.Items[idx])
		}
	}
	return items
}

// ActiveProductItems returns the non-canceled PRODUCT line items
func (t *Tab) ActiveProductItems() []*LineItem {
	items := make([]*LineItem, 0)
	for idx := range t.Items {
		if t.Items[idx].IsActive() && t.Items[idx].Kind == ItemKindProduct {
			items = append(items, &t.Items[idx])
		}
	}
	return items
}

// UpdateItemQuantity changes an item's quantity and returns the signed
// delta for compensating stock adjustments
func (t *Tab) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error) {
	if t.IsTerminal() {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot update items on a %s tab", t.Status))
	}
	item := t.Item(itemID)
	if item == nil {
		return decimal.Zero, shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
	}
	delta, err := item.UpdateQuantity(quantity)
	if err != nil {
		return decimal.Zero, err
	}
	t.recalculateTotals()
	t.UpdatedAt = time.Now()
	return delta, nil
}

// SetItemDiscount sets a per-item discount
func (t *Tab) SetItemDiscount(itemID uuid.UUID, discount valueobject.Money) error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot update items on a %s tab", t.Status))
	}
	item := t.Item(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
	}
	if err := item.SetDiscount(discount); err != nil {
		return err
	}
	t.recalculateTotals()
	t.UpdatedAt = time.Now()
	return nil
}

// CancelItem soft-cancels a line item and recomputes totals. Stock and
// prepaid-session compensation is orchestrated by the caller.
func (t *Tab) CancelItem(itemID, actorID uuid.UUID, reason string) (*LineItem, error) {
	if t.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel items on a %s tab", t.Status))
	}
	item := t.Item(itemID)
	if item == nil {
		return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
	}
	if err := item.Cancel(actorID, reason); err != nil {
		return nil, err
	}
	t.recalculateTotals()
	t.UpdatedAt = time.Now()
	return item, nil
}

// ApplyManualDiscount sets the tab-level manual discount. It accumulates
// in its own field and is never conflated with item-level discounts.
func (t *Tab) ApplyManualDiscount(discount valueobject.Money) error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot apply a discount to a %s tab", t.Status))
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Manual discount cannot be negative")
	}
	if discount.Amount().Add(t.ItemDiscounts).GreaterThan(t.Gross) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Total discounts cannot exceed the tab gross amount")
	}

	t.ManualDiscount = discount.Amount()
	t.recalculateTotals()
	t.UpdatedAt = time.Now()
	return nil
}

// AddPayment records a payment against the tab. Payments are append-only.
func (t *Tab) AddPayment(payment *Payment) error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot add payments to a %s tab", t.Status))
	}
	payment.TabID = t.ID
	t.Payments = append(t.Payments, *payment)
	t.UpdatedAt = time.Now()
	return nil
}

// TotalPaid sums the settled amount over all payments
func (t *Tab) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for idx := range t.Payments {
		total = total.Add(t.Payments[idx].Paid())
	}
	return total
}

// IsFullyPaid compares payments against the net total with the given
// tolerance in currency units (one cent covers rounding drift)
func (t *Tab) IsFullyPaid(tolerance decimal.Decimal) bool {
	return t.TotalPaid().GreaterThanOrEqual(t.Net.Sub(tolerance))
}

// CloseService moves the tab to WAITING_PAYMENT. The recipe consumption
// pass is orchestrated by the caller before or after, depending on flow.
func (t *Tab) CloseService(actorID uuid.UUID) error {
	if !t.Status.CanTransitionTo(TabStatusWaitingPayment) || t.Status == TabStatusClosed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot close service on a %s tab", t.Status))
	}

	now := time.Now()
	t.Status = TabStatusWaitingPayment
	t.ServiceClosedAt = &now
	t.ServiceClosedBy = &actorID
	t.UpdatedAt = now
	return nil
}

// Close finalizes the tab. Requires every owed cent (minus tolerance) to
// be paid; both the cashier close and the payment-driven auto-close end
// here, so the status flips to CLOSED in exactly one place.
func (t *Tab) Close(actorID uuid.UUID, tolerance decimal.Decimal) error {
	if t.Status != TabStatusWaitingPayment {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot close a %s tab", t.Status))
	}
	if !t.IsFullyPaid(tolerance) {
		return shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Payments (%s) do not cover the tab net total (%s)",
				t.TotalPaid().StringFixed(2), t.Net.StringFixed(2)))
	}

	now := time.Now()
	t.Status = TabStatusClosed
	t.CashierClosedAt = &now
	t.CashierClosedBy = &actorID
	t.UpdatedAt = now
	return nil
}

// Cancel cancels the tab from any non-terminal state. Compensating side
// effects (stock, prepaid sessions) are orchestrated by the caller.
func (t *Tab) Cancel(actorID uuid.UUID, reason string) error {
	if !t.Status.CanTransitionTo(TabStatusCanceled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel a %s tab", t.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	t.Status = TabStatusCanceled
	t.CanceledAt = &now
	t.CanceledBy = &actorID
	t.CancelReason = reason
	t.UpdatedAt = now
	return nil
}

// Reopen moves a CLOSED tab back to WAITING_PAYMENT. Gated on an elevated
// role and a substantive reason; the cashier-close marks are cleared so a
// later close records fresh ones.
func (t *Tab) Reopen(actor shared.Actor, reason string, minReasonLen int) error {
	if t.Status != TabStatusClosed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reopen a %s tab", t.Status))
	}
	if !actor.Role.IsElevated() {
		return shared.NewDomainError("PERMISSION_DENIED", "Reopening a closed tab requires an elevated role")
	}
	if len(strings.TrimSpace(reason)) < minReasonLen {
		return shared.NewDomainError("INVALID_REASON",
			fmt.Sprintf("Reopen reason must be at least %d characters", minReasonLen))
	}

	t.Status = TabStatusWaitingPayment
	t.CashierClosedAt = nil
	t.CashierClosedBy = nil
	t.UpdatedAt = time.Now()
	return nil
}

// LinkClient attaches a client to the tab
func (t *Tab) LinkClient(clientID uuid.UUID) error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot link a client to a %s tab", t.Status))
	}
	if clientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	t.ClientID = &clientID
	t.UpdatedAt = time.Now()
	return nil
}

// UnlinkClient detaches the client. Items require client attribution, so
// unlinking is rejected while active items exist.
func (t *Tab) UnlinkClient() error {
	if t.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot unlink the client of a %s tab", t.Status))
	}
	if len(t.ActiveItems()) > 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot unlink the client while the tab has active items")
	}
	t.ClientID = nil
	t.UpdatedAt = time.Now()
	return nil
}

// AppendNote appends a free-text note line
func (t *Tab) AppendNote(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError("INVALID_NOTE", "Note cannot be empty")
	}
	if t.Notes == "" {
		t.Notes = note
	} else {
		t.Notes = t.Notes + "\n" + note
	}
	t.UpdatedAt = time.Now()
	return nil
}

// recalculateTotals recomputes all monetary totals from the active line
// items plus the manual discount. Deterministic regardless of call order:
// gross = sum(qty*unitPrice), itemDiscounts = sum(item.discount),
// totalDiscounts = itemDiscounts + manualDiscount,
// net = gross - totalDiscounts.
func (t *Tab) recalculateTotals() {
	gross := decimal.Zero
	itemDiscounts := decimal.Zero
	for idx := range t.Items {
		if !t.Items[idx].IsActive() {
			continue
		}
		gross = gross.Add(t.Items[idx].GrossContribution())
		itemDiscounts = itemDiscounts.Add(t.Items[idx].DiscountContribution())
	}
	t.Gross = gross
	t.ItemDiscounts = itemDiscounts
	t.TotalDiscounts = itemDiscounts.Add(t.ManualDiscount)
	t.Net = gross.Sub(t.TotalDiscounts)
}
