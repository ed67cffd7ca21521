package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// TabModel is the persistence model for the Tab aggregate root.
type TabModel struct {
	TenantAggregateModel
	CardNumber     int             `gorm:"not null;index:idx_tabs_tenant_card,priority:2"`
	ClientID       *uuid.UUID      `gorm:"type:uuid;index"`
	AppointmentID  *uuid.UUID      `gorm:"type:uuid;index"`
	Status         tab.TabStatus   `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Gross          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ItemDiscounts  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ManualDiscount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscounts decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Net            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes          string          `gorm:"type:text"`

	OpenedBy        uuid.UUID  `gorm:"type:uuid;not null"`
	ServiceClosedAt *time.Time `gorm:"index"`
	ServiceClosedBy *uuid.UUID `gorm:"type:uuid"`
	CashierClosedAt *time.Time `gorm:"index"`
	CashierClosedBy *uuid.UUID `gorm:"type:uuid"`
	CanceledAt      *time.Time
	CanceledBy      *uuid.UUID `gorm:"type:uuid"`
	CancelReason    string     `gorm:"type:varchar(500)"`

	Items    []LineItemModel `gorm:"foreignKey:TabID;references:ID"`
	Payments []PaymentModel  `gorm:"foreignKey:TabID;references:ID"`
}

// TableName returns the table name for GORM
func (TabModel) TableName() string {
	return "tabs"
}

// ToDomain converts the persistence model to a domain Tab aggregate.
func (m *TabModel) ToDomain() *tab.Tab {
	t := &tab.Tab{
		CardNumber:      m.CardNumber,
		ClientID:        m.ClientID,
		AppointmentID:   m.AppointmentID,
		Status:          m.Status,
		Gross:           m.Gross,
		ItemDiscounts:   m.ItemDiscounts,
		ManualDiscount:  m.ManualDiscount,
		TotalDiscounts:  m.TotalDiscounts,
		Net:             m.Net,
		Notes:           m.Notes,
		OpenedBy:        m.OpenedBy,
		ServiceClosedAt: m.ServiceClosedAt,
		ServiceClosedBy: m.ServiceClosedBy,
		CashierClosedAt: m.CashierClosedAt,
		CashierClosedBy: m.CashierClosedBy,
		CanceledAt:      m.CanceledAt,
		CanceledBy:      m.CanceledBy,
		CancelReason:    m.CancelReason,
		Items:           make([]tab.LineItem, len(m.Items)),
		Payments:        make([]tab.Payment, len(m.Payments)),
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	for i := range m.Items {
		t.Items[i] = *m.Items[i].ToDomain()
	}
	for i := range m.Payments {
		t.Payments[i] = *m.Payments[i].ToDomain()
	}
	return t
}

// FromDomain populates the persistence model from a domain Tab aggregate.
func (m *TabModel) FromDomain(t *tab.Tab) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.CardNumber = t.CardNumber
	m.ClientID = t.ClientID
	m.AppointmentID = t.AppointmentID
	m.Status = t.Status
	m.Gross = t.Gross
	m.ItemDiscounts = t.ItemDiscounts
	m.ManualDiscount = t.ManualDiscount
	m.TotalDiscounts = t.TotalDiscounts
	m.Net = t.Net
	m.Notes = t.Notes
	m.OpenedBy = t.OpenedBy
	m.ServiceClosedAt = t.ServiceClosedAt
	m.ServiceClosedBy = t.ServiceClosedBy
	m.CashierClosedAt = t.CashierClosedAt
	m.CashierClosedBy = t.CashierClosedBy
	m.CanceledAt = t.CanceledAt
	m.CanceledBy = t.CanceledBy
	m.CancelReason = t.CancelReason
	m.Items = make([]LineItemModel, len(t.Items))
	for i := range t.Items {
		m.Items[i].FromDomain(&t.Items[i])
	}
	m.Payments = make([]PaymentModel, len(t.Payments))
	for i := range t.Payments {
		m.Payments[i].FromDomain(&t.Payments[i])
	}
}

// TabModelFromDomain creates a new persistence model from a domain Tab.
func TabModelFromDomain(t *tab.Tab) *TabModel {
	m := &TabModel{}
	m.FromDomain(t)
	return m
}

// LineItemModel is the persistence model for the LineItem entity.
type LineItemModel struct {
	BaseModel
	TabID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           tab.ItemKind    `gorm:"type:varchar(10);not null"`
	ServiceID      *uuid.UUID      `gorm:"type:uuid;index"`
	ProductID      *uuid.UUID      `gorm:"type:uuid;index"`
	VariantID      *uuid.UUID      `gorm:"type:uuid"`
	Description    string          `gorm:"type:varchar(200);not null"`
	PerformerID    *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PackageSettled bool            `gorm:"not null;default:false"`
	SessionUsageID *uuid.UUID      `gorm:"type:uuid"`
	KitGroupID     *uuid.UUID      `gorm:"type:uuid"`
	CanceledAt     *time.Time
	CanceledBy     *uuid.UUID `gorm:"type:uuid"`
	CancelReason   string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "tab_line_items"
}

// ToDomain converts the persistence model to a domain LineItem entity.
func (m *LineItemModel) ToDomain() *tab.LineItem {
	return &tab.LineItem{
		BaseEntity:     m.BaseModel.ToDomain(),
		TabID:          m.TabID,
		Kind:           m.Kind,
		ServiceID:      m.ServiceID,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		Description:    m.Description,
		PerformerID:    m.PerformerID,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		Discount:       m.Discount,
		Total:          m.Total,
		PackageSettled: m.PackageSettled,
		SessionUsageID: m.SessionUsageID,
		KitGroupID:     m.KitGroupID,
		CanceledAt:     m.CanceledAt,
		CanceledBy:     m.CanceledBy,
		CancelReason:   m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain LineItem entity.
func (m *LineItemModel) FromDomain(i *tab.LineItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.TabID = i.TabID
	m.Kind = i.Kind
	m.ServiceID = i.ServiceID
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.Description = i.Description
	m.PerformerID = i.PerformerID
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.Discount = i.Discount
	m.Total = i.Total
	m.PackageSettled = i.PackageSettled
	m.SessionUsageID = i.SessionUsageID
	m.KitGroupID = i.KitGroupID
	m.CanceledAt = i.CanceledAt
	m.CanceledBy = i.CanceledBy
	m.CancelReason = i.CancelReason
}

// PaymentModel is the persistence model for the Payment entity. NetAmount
// is nullable: rows written before fee tracking carry NULL and settle at
// their gross amount.
type PaymentModel struct {
	BaseModel
	TabID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Method        string           `gorm:"type:varchar(50)"`
	MethodID      *uuid.UUID       `gorm:"type:uuid"`
	DestinationID *uuid.UUID       `gorm:"type:uuid"`
	Amount        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	FeeAmount     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	NetAmount     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReceivedBy    uuid.UUID        `gorm:"type:uuid;not null"`
	ReceivedAt    time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "tab_payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
// A NULL net amount falls back to the gross amount.
func (m *PaymentModel) ToDomain() *tab.Payment {
	net := m.Amount
	if m.NetAmount != nil {
		net = *m.NetAmount
	}
	return &tab.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		TabID:         m.TabID,
		Method:        m.Method,
		MethodID:      m.MethodID,
		DestinationID: m.DestinationID,
		Amount:        m.Amount,
		FeeAmount:     m.FeeAmount,
		NetAmount:     net,
		ReceivedBy:    m.ReceivedBy,
		ReceivedAt:    m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *tab.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TabID = p.TabID
	m.Method = p.Method
	m.MethodID = p.MethodID
	m.DestinationID = p.DestinationID
	m.Amount = p.Amount
	m.FeeAmount = p.FeeAmount
	net := p.NetAmount
	m.NetAmount = &net
	m.ReceivedBy = p.ReceivedBy
	m.ReceivedAt = p.ReceivedAt
}

// TabEventModel is the persistence model for the append-only audit trail.
type TabEventModel struct {
	ID        uuid.UUID    `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	TabID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	ActorID   uuid.UUID    `gorm:"type:uuid;not null"`
	Type      string       `gorm:"type:varchar(50);not null"`
	Metadata  tab.Metadata `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TabEventModel) TableName() string {
	return "tab_events"
}

// ToDomain converts the persistence model to a domain TabEvent.
func (m *TabEventModel) ToDomain() *tab.TabEvent {
	return &tab.TabEvent{
		ID:        m.ID,
		TenantID:  m.TenantID,
		TabID:     m.TabID,
		ActorID:   m.ActorID,
		Type:      m.Type,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}

// TabEventModelFromDomain creates a persistence model from a domain TabEvent.
func TabEventModelFromDomain(e *tab.TabEvent) *TabEventModel {
	return &TabEventModel{
		ID:        e.ID,
		TenantID:  e.TenantID,
		TabID:     e.TabID,
		ActorID:   e.ActorID,
		Type:      e.Type,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

// ConsumptionSnapshotModel is the persistence model for recipe consumption
// snapshots. The unique (tab_id, item_id) index enforces the at-most-one
// invariant at the storage level.
type ConsumptionSnapshotModel struct {
	BaseModel
	TenantID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	TabID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_consumption_tab_item,priority:1"`
	ItemID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_consumption_tab_item,priority:2"`
	RecipeID      uuid.UUID         `gorm:"type:uuid;not null"`
	RecipeVersion int               `gorm:"not null"`
	VariantID     *uuid.UUID        `gorm:"type:uuid"`
	Lines         tab.SnapshotLines `gorm:"type:jsonb;not null;default:'[]'"`
	MovementID    *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ConsumptionSnapshotModel) TableName() string {
	return "consumption_snapshots"
}

// ToDomain converts the persistence model to a domain ConsumptionSnapshot.
func (m *ConsumptionSnapshotModel) ToDomain() *tab.ConsumptionSnapshot {
	return &tab.ConsumptionSnapshot{
		BaseEntity:    m.BaseModel.ToDomain(),
		TenantID:      m.TenantID,
		TabID:         m.TabID,
		ItemID:        m.ItemID,
		RecipeID:      m.RecipeID,
		RecipeVersion: m.RecipeVersion,
		VariantID:     m.VariantID,
		Lines:         m.Lines,
		MovementID:    m.MovementID,
	}
}

// ConsumptionSnapshotModelFromDomain creates a persistence model from a
// domain ConsumptionSnapshot.
func ConsumptionSnapshotModelFromDomain(s *tab.ConsumptionSnapshot) *ConsumptionSnapshotModel {
	m := &ConsumptionSnapshotModel{
		TenantID:      s.TenantID,
		TabID:         s.TabID,
		ItemID:        s.ItemID,
		RecipeID:      s.RecipeID,
		RecipeVersion: s.RecipeVersion,
		VariantID:     s.VariantID,
		Lines:         s.Lines,
		MovementID:    s.MovementID,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
