package tab

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// ==================== Requests ====================

// OpenTabRequest represents a request to open a tab. CardNumber is
// optional: when absent the engine assigns the lowest free number.
type OpenTabRequest struct {
	CardNumber    *int       `json:"card_number" binding:"omitempty,min=1,max=999"`
	ClientID      *uuid.UUID `json:"client_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Note          string     `json:"note"`
}

// QuickAccessRequest finds or creates the tab at a card number
type QuickAccessRequest struct {
	CardNumber int `json:"card_number" binding:"required,min=1,max=999"`
}

// AddItemRequest represents a request to add a line item.
// UnitPrice overrides the catalog price when provided.
// SkipPackage opts out of the prepaid-session offset for service items.
type AddItemRequest struct {
	Kind        tab.ItemKind     `json:"kind" binding:"required,oneof=SERVICE PRODUCT"`
	ServiceID   *uuid.UUID       `json:"service_id"`
	ProductID   *uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID       `json:"variant_id"`
	PerformerID *uuid.UUID       `json:"performer_id"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal  `json:"discount"`
	SkipPackage bool             `json:"skip_package"`
}

// UpdateItemRequest carries partial updates for a line item. A nil field
// leaves the value unchanged.
type UpdateItemRequest struct {
	Quantity    *decimal.Decimal `json:"quantity"`
	Discount    *decimal.Decimal `json:"discount"`
	PerformerID *uuid.UUID       `json:"performer_id"`
}

// RemoveItemRequest soft-cancels a line item
type RemoveItemRequest struct {
	Reason string `json:"reason"`
}

// ManualDiscountRequest applies the tab-level manual discount
type ManualDiscountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

// AddPaymentRequest records a settled payment. Either Method or MethodID
// must be present.
type AddPaymentRequest struct {
	Method        string          `json:"method"`
	MethodID      *uuid.UUID      `json:"method_id"`
	DestinationID *uuid.UUID      `json:"destination_id"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// CancelTabRequest cancels a tab
type CancelTabRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReopenTabRequest reopens a closed tab
type ReopenTabRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LinkClientRequest links a client to a tab
type LinkClientRequest struct {
	ClientID uuid.UUID `json:"client_id" binding:"required"`
}

// AddNoteRequest appends a note to a tab
type AddNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// ListFilter carries list query options for tabs
type ListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Status   *tab.TabStatus
	ClientID *uuid.UUID
}

// ==================== Responses ====================

// LineItemResponse is the API view of a line item
type LineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Kind           tab.ItemKind    `json:"kind"`
	ServiceID      *uuid.UUID      `json:"service_id,omitempty"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	VariantID      *uuid.UUID      `json:"variant_id,omitempty"`
	Description    string          `json:"description"`
	PerformerID    *uuid.UUID      `json:"performer_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	PackageSettled bool            `json:"package_settled"`
	KitGroupID     *uuid.UUID      `json:"kit_group_id,omitempty"`
	CanceledAt     *time.Time      `json:"canceled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
}

// PaymentResponse is the API view of a payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	Method        string          `json:"method,omitempty"`
	MethodID      *uuid.UUID      `json:"method_id,omitempty"`
	DestinationID *uuid.UUID      `json:"destination_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	ReceivedBy    uuid.UUID       `json:"received_by"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// TabEventResponse is the API view of an audit event
type TabEventResponse struct {
	ID        uuid.UUID    `json:"id"`
	ActorID   uuid.UUID    `json:"actor_id"`
	Type      string       `json:"type"`
	Metadata  tab.Metadata `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
}

// TabResponse is the API view of a tab
type TabResponse struct {
	ID              uuid.UUID          `json:"id"`
	CardNumber      int                `json:"card_number"`
	ClientID        *uuid.UUID         `json:"client_id,omitempty"`
	AppointmentID   *uuid.UUID         `json:"appointment_id,omitempty"`
	Status          tab.TabStatus      `json:"status"`
	Gross           decimal.Decimal    `json:"gross"`
	ItemDiscounts   decimal.Decimal    `json:"item_discounts"`
	ManualDiscount  decimal.Decimal    `json:"manual_discount"`
	TotalDiscounts  decimal.Decimal    `json:"total_discounts"`
	Net             decimal.Decimal    `json:"net"`
	TotalPaid       decimal.Decimal    `json:"total_paid"`
	Notes           string             `json:"notes,omitempty"`
	OpenedBy        uuid.UUID          `json:"opened_by"`
	OpenedAt        time.Time          `json:"opened_at"`
	ServiceClosedAt *time.Time         `json:"service_closed_at,omitempty"`
	CashierClosedAt *time.Time         `json:"cashier_closed_at,omitempty"`
	CanceledAt      *time.Time         `json:"canceled_at,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	Items           []LineItemResponse `json:"items"`
	Payments        []PaymentResponse  `json:"payments"`
}

// TabDetailsResponse is the aggregate read view: tab plus audit timeline
type TabDetailsResponse struct {
	TabResponse
	Events []TabEventResponse `json:"events"`
}

// QuickAccessResult reports the find-or-create outcome. PreviousStatus is
// set when a new tab was created and a terminal tab had held the number.
type QuickAccessResult struct {
	Tab            TabResponse `json:"tab"`
	Created        bool        `json:"created"`
	PreviousStatus *string     `json:"previous_status,omitempty"`
}

// AddPaymentResult reports the payment outcome, including whether the
// payment triggered an auto-close
type AddPaymentResult struct {
	Tab        TabResponse     `json:"tab"`
	Payment    PaymentResponse `json:"payment"`
	AutoClosed bool            `json:"auto_closed"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// CloseResult reports a close outcome with any best-effort warnings
type CloseResult struct {
	Tab      TabResponse        `json:"tab"`
	Loyalty  *tab.LoyaltyResult `json:"loyalty,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// ==================== Converters ====================

// ToLineItemResponse converts a domain line item
func ToLineItemResponse(i *tab.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:             i.ID,
		Kind:           i.Kind,
		ServiceID:      i.ServiceID,
		ProductID:      i.ProductID,
		VariantID:      i.VariantID,
		Description:    i.Description,
		PerformerID:    i.PerformerID,
		Quantity:       i.Quantity,
		UnitPrice:      i.UnitPrice,
		Discount:       i.Discount,
		Total:          i.Total,
		PackageSettled: i.PackageSettled,
		KitGroupID:     i.KitGroupID,
		CanceledAt:     i.CanceledAt,
		CancelReason:   i.CancelReason,
	}
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *tab.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		Method:        p.Method,
		MethodID:      p.MethodID,
		DestinationID: p.DestinationID,
		Amount:        p.Amount,
		FeeAmount:     p.FeeAmount,
		NetAmount:     p.NetAmount,
		ReceivedBy:    p.ReceivedBy,
		ReceivedAt:    p.ReceivedAt,
	}
}

// ToTabEventResponse converts a domain audit event
func ToTabEventResponse(e *tab.TabEvent) TabEventResponse {
	return TabEventResponse{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Type:      e.Type,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

// ToTabResponse converts a domain tab
func ToTabResponse(t *tab.Tab) TabResponse {
	items := make([]LineItemResponse, len(t.Items))
	for idx := range t.Items {
		items[idx] = ToLineItemResponse(&t.Items[idx])
	}
	payments := make([]PaymentResponse, len(t.Payments))
	for idx := range t.Payments {
		payments[idx] = ToPaymentResponse(&t.Payments[idx])
	}
	return TabResponse{
		ID:              t.ID,
		CardNumber:      t.CardNumber,
		ClientID:        t.ClientID,
		AppointmentID:   t.AppointmentID,
		Status:          t.Status,
		Gross:           t.Gross,
		ItemDiscounts:   t.ItemDiscounts,
		ManualDiscount:  t.ManualDiscount,
		TotalDiscounts:  t.TotalDiscounts,
		Net:             t.Net,
		TotalPaid:       t.TotalPaid(),
		Notes:           t.Notes,
		OpenedBy:        t.OpenedBy,
		OpenedAt:        t.CreatedAt,
		ServiceClosedAt: t.ServiceClosedAt,
		CashierClosedAt: t.CashierClosedAt,
		CanceledAt:      t.CanceledAt,
		CancelReason:    t.CancelReason,
		Items:           items,
		Payments:        payments,
	}
}

// ToTabEventResponses converts a slice of audit events
func ToTabEventResponses(events []tab.TabEvent) []TabEventResponse {
	out := make([]TabEventResponse, len(events))
	for idx := range events {
		out[idx] = ToTabEventResponse(&events[idx])
	}
	return out
}
