package tab

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
)

// ItemKind distinguishes service and product line items
type ItemKind string

const (
	ItemKindService ItemKind = "SERVICE"
	ItemKindProduct ItemKind = "PRODUCT"
)

// IsValid checks if the kind is a known ItemKind
func (k ItemKind) IsValid() bool {
	return k == ItemKindService || k == ItemKindProduct
}

// LineItem is a single billable entry on a tab: a service rendered or a
// product sold. Items are soft-canceled, never deleted, so the tab keeps a
// complete record of everything that was ever on it.
type LineItem struct {
	shared.BaseEntity
	TabID       uuid.UUID
	Kind        ItemKind
	ServiceID   *uuid.UUID
	ProductID   *uuid.UUID
	VariantID   *uuid.UUID
	Description string
	PerformerID *uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal

	// Prepaid-session settlement
	PackageSettled bool
	SessionUsageID *uuid.UUID

	// Kit products record the shared movement group for atomic reversal
	KitGroupID *uuid.UUID

	CanceledAt   *time.Time
	CanceledBy   *uuid.UUID
	CancelReason string
}

// NewServiceItem creates a new SERVICE line item
func NewServiceItem(tabID, serviceID uuid.UUID, variantID *uuid.UUID, description string, quantity decimal.Decimal, unitPrice, discount valueobject.Money) (*LineItem, error) {
	if serviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service ID cannot be empty")
	}
	item, err := newLineItem(tabID, ItemKindService, description, quantity, unitPrice, discount)
	if err != nil {
		return nil, err
	}
	item.ServiceID = &serviceID
	item.VariantID = variantID
	return item, nil
}

// NewProductItem creates a new PRODUCT line item
func NewProductItem(tabID, productID uuid.UUID, description string, quantity decimal.Decimal, unitPrice, discount valueobject.Money) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	item, err := newLineItem(tabID, ItemKindProduct, description, quantity, unitPrice, discount)
	if err != nil {
		return nil, err
	}
	item.ProductID = &productID
	return item, nil
}

func newLineItem(tabID uuid.UUID, kind ItemKind, description string, quantity decimal.Decimal, unitPrice, discount valueobject.Money) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot be negative")
	}
	gross := quantity.Mul(unitPrice.Amount())
	if discount.Amount().GreaterThan(gross) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot exceed item gross amount")
	}

	item := &LineItem{
		BaseEntity:  shared.NewBaseEntity(),
		TabID:       tabID,
		Kind:        kind,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Discount:    discount.Amount(),
	}
	item.recalculate()
	return item, nil
}

// IsCanceled returns true if the item has been soft-canceled
func (i *LineItem) IsCanceled() bool {
	return i.CanceledAt != nil
}

// IsActive returns true if the item still counts toward the tab totals
func (i *LineItem) IsActive() bool {
	return !i.IsCanceled()
}

// GrossContribution returns the item's contribution to the tab gross.
// Package-settled items contribute nothing: the prepaid session already
// paid for them.
func (i *LineItem) GrossContribution() decimal.Decimal {
	if i.PackageSettled {
		return decimal.Zero
	}
	return i.Quantity.Mul(i.UnitPrice)
}

// DiscountContribution returns the item's contribution to the tab item
// discounts. Zero for package-settled items, matching GrossContribution.
func (i *LineItem) DiscountContribution() decimal.Decimal {
	if i.PackageSettled {
		return decimal.Zero
	}
	return i.Discount
}

// UpdateQuantity changes the quantity and returns the signed delta so the
// caller can issue a compensating stock adjustment
func (i *LineItem) UpdateQuantity(quantity decimal.Decimal) (decimal.Decimal, error) {
	if i.IsCanceled() {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Cannot update a canceled item")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	delta := quantity.Sub(i.Quantity)
	i.Quantity = quantity
	i.recalculate()
	i.UpdatedAt = time.Now()
	return delta, nil
}

// SetDiscount sets the per-item discount
func (i *LineItem) SetDiscount(discount valueobject.Money) error {
	if i.IsCanceled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update a canceled item")
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot be negative")
	}
	if discount.Amount().GreaterThan(i.Quantity.Mul(i.UnitPrice)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot exceed item gross amount")
	}

	i.Discount = discount.Amount()
	i.recalculate()
	i.UpdatedAt = time.Now()
	return nil
}

// AssignPerformer sets or replaces the performing staff member
func (i *LineItem) AssignPerformer(performerID uuid.UUID) error {
	if i.IsCanceled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update a canceled item")
	}
	if i.Kind != ItemKindService {
		return shared.NewDomainError("INVALID_STATE", "Only service items have a performer")
	}
	if performerID == uuid.Nil {
		return shared.NewDomainError("INVALID_PERFORMER", "Performer ID cannot be empty")
	}
	i.PerformerID = &performerID
	i.UpdatedAt = time.Now()
	return nil
}

// SettleWithPackage marks the item as paid by a prepaid-session balance.
// The item stops contributing to the tab totals.
func (i *LineItem) SettleWithPackage(usageID uuid.UUID) error {
	if i.IsCanceled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot settle a canceled item")
	}
	if i.Kind != ItemKindService {
		return shared.NewDomainError("INVALID_STATE", "Only service items can be settled by a prepaid session")
	}
	if i.PackageSettled {
		return shared.NewDomainError("INVALID_STATE", "Item is already settled by a prepaid session")
	}
	i.PackageSettled = true
	i.SessionUsageID = &usageID
	i.recalculate()
	i.UpdatedAt = time.Now()
	return nil
}

// ClearPackageSettlement undoes a prepaid-session settlement after the
// consumption was reverted, restoring normal pricing
func (i *LineItem) ClearPackageSettlement() {
	i.PackageSettled = false
	i.SessionUsageID = nil
	i.recalculate()
	i.UpdatedAt = time.Now()
}

// SetKitGroup records the shared kit-movement group for later atomic reversal
func (i *LineItem) SetKitGroup(groupID uuid.UUID) {
	i.KitGroupID = &groupID
	i.UpdatedAt = time.Now()
}

// Cancel soft-cancels the item. Canceled items are immutable.
func (i *LineItem) Cancel(actorID uuid.UUID, reason string) error {
	if i.IsCanceled() {
		return shared.NewDomainError("INVALID_STATE", "Item is already canceled")
	}
	now := time.Now()
	i.CanceledAt = &now
	i.CanceledBy = &actorID
	i.CancelReason = reason
	i.UpdatedAt = now
	return nil
}

// recalculate recomputes the item total: quantity*unitPrice - discount,
// or zero when settled by a prepaid session
func (i *LineItem) recalculate() {
	if i.PackageSettled {
		i.Total = decimal.Zero
		return
	}
	i.Total = i.Quantity.Mul(i.UnitPrice).Sub(i.Discount)
}
