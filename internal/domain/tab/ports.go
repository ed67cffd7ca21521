package tab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// Collaborator contracts consumed by the Tab Engine. These bounded
// contexts own their data; the engine only invokes their operations and
// references their records by id.

// StockLocation identifies which stock pool an adjustment targets
type StockLocation string

const (
	LocationRetail   StockLocation = "RETAIL"
	LocationInternal StockLocation = "INTERNAL"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementSale        MovementType = "SALE"
	MovementSaleReturn  MovementType = "SALE_RETURN"
	MovementConsumption MovementType = "CONSUMPTION"
	MovementReversal    MovementType = "REVERSAL"
)

// StockAdjustment describes a single signed stock adjustment
// (negative quantity = outbound)
type StockAdjustment struct {
	ProductID     uuid.UUID
	TenantID      uuid.UUID
	ActorID       uuid.UUID
	Quantity      decimal.Decimal
	Location      StockLocation
	MovementType  MovementType
	Reason        string
	ReferenceType string
	ReferenceID   *uuid.UUID
}

// StockMovement is the inventory ledger's record of an applied adjustment
type StockMovement struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Location  StockLocation
}

// KitDeduction describes an atomic multi-component deduction for a kit sale
type KitDeduction struct {
	KitProductID uuid.UUID
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	Quantity     decimal.Decimal
	Location     StockLocation
	ReferenceID  uuid.UUID
}

// InventoryService is the inventory ledger contract
type InventoryService interface {
	Adjust(ctx context.Context, adj StockAdjustment) (*StockMovement, error)
	DeductKit(ctx context.Context, deduction KitDeduction) (groupID uuid.UUID, err error)
	ReverseKit(ctx context.Context, groupID, actorID uuid.UUID, reason string, referenceID uuid.UUID) error
}

// DrawerSession is an open cash-drawer session
type DrawerSession struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	OpenedAt time.Time
}

// CashDrawerService is the cash-drawer session contract. CurrentOpenSession
// returns (nil, nil) when no session is open.
type CashDrawerService interface {
	CurrentOpenSession(ctx context.Context, tenantID uuid.UUID) (*DrawerSession, error)
	RecordSettlement(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) error
}

// PackageBalance is the result of a prepaid-session availability check
type PackageBalance struct {
	Available bool
	PackageID uuid.UUID
	BalanceID uuid.UUID
	Remaining int
}

// SessionUsage is the record of one consumed prepaid session
type SessionUsage struct {
	UsageID   uuid.UUID
	Remaining int
}

// SessionConsumption describes a prepaid-session consume request
type SessionConsumption struct {
	TenantID    uuid.UUID
	PackageID   uuid.UUID
	ServiceID   uuid.UUID
	TabID       uuid.UUID
	PerformerID *uuid.UUID
}

// PrepaidSessionService is the client package-balance contract
type PrepaidSessionService interface {
	CheckAvailable(ctx context.Context, clientID, serviceID uuid.UUID) (*PackageBalance, error)
	Consume(ctx context.Context, consumption SessionConsumption) (*SessionUsage, error)
	Revert(ctx context.Context, usageID uuid.UUID, note string) (remaining int, err error)
}

// RecipeLine is one material in a service's bill of materials
type RecipeLine struct {
	ProductID  uuid.UUID
	Standard   decimal.Decimal
	Buffer     decimal.Decimal
	UnitCost   decimal.Decimal
	Continuous bool // measured by volume/weight rather than counted
}

// RecipeVariant scales the bill of materials for a service variant
type RecipeVariant struct {
	ID         uuid.UUID
	Multiplier decimal.Decimal
	Default    bool
}

// Recipe is the active versioned bill of materials for a service
type Recipe struct {
	ID       uuid.UUID
	Version  int
	Lines    []RecipeLine
	Variants []RecipeVariant
}

// Multiplier resolves the variant multiplier: the explicit variant if
// given, else the designated default variant, else 1
func (r *Recipe) Multiplier(variantID *uuid.UUID) decimal.Decimal {
	if variantID != nil {
		for _, v := range r.Variants {
			if v.ID == *variantID {
				return v.Multiplier
			}
		}
	}
	for _, v := range r.Variants {
		if v.Default {
			return v.Multiplier
		}
	}
	return decimal.NewFromInt(1)
}

// RecipeResolver returns the active recipe for a service, or (nil, nil)
// when the service has none
type RecipeResolver interface {
	GetActive(ctx context.Context, serviceID, tenantID uuid.UUID) (*Recipe, error)
}

// CommissionRequest describes a commission record to create for a closed item
type CommissionRequest struct {
	TenantID    uuid.UUID
	TabID       uuid.UUID
	ItemID      uuid.UUID
	PerformerID uuid.UUID
	Description string
	Amount      decimal.Decimal
	Percentage  decimal.Decimal
}

// CommissionService creates staff commission records (best-effort)
type CommissionService interface {
	CreateFromItem(ctx context.Context, req CommissionRequest) error
}

// LoyaltyResult reports the outcome of loyalty accrual for a closed tab
type LoyaltyResult struct {
	PointsEarned int
	TierUpgraded bool
	NewTierName  string
}

// LoyaltyService awards loyalty points for a closed tab (best-effort)
type LoyaltyService interface {
	ProcessTabPoints(ctx context.Context, tenantID, tabID, clientID, actorID uuid.UUID) (*LoyaltyResult, error)
}

// ClientDirectory is the narrow client-management contract
type ClientDirectory interface {
	UpdateLastVisit(ctx context.Context, clientID uuid.UUID) error
}

// ProductInfo is the catalog's view of a sellable product
type ProductInfo struct {
	ID          uuid.UUID
	Name        string
	Sellable    bool
	IsKit       bool
	RetailPrice decimal.Decimal
}

// ServiceInfo is the catalog's view of a service
type ServiceInfo struct {
	ID        uuid.UUID
	Name      string
	BasePrice decimal.Decimal
}

// CatalogService resolves catalog entities referenced by line items
type CatalogService interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductInfo, error)
	GetService(ctx context.Context, tenantID, serviceID uuid.UUID) (*ServiceInfo, error)
}

// FeeRuleResolver resolves the fee rule for a payment. The destination
// rule wins over the method rule; (nil, nil) means no fee applies.
type FeeRuleResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, methodID, destinationID *uuid.UUID) (*FeeRule, error)
}

// StaffDirectory resolves staff roles and appointment performers
type StaffDirectory interface {
	GetRole(ctx context.Context, tenantID, userID uuid.UUID) (shared.Role, error)
	GetAppointmentPerformer(ctx context.Context, tenantID, appointmentID uuid.UUID) (*uuid.UUID, error)
}
