package tab

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// SnapshotLine records one material consumed by a recipe application
type SnapshotLine struct {
	ProductID       uuid.UUID       `json:"product_id"`
	QuantityApplied decimal.Decimal `json:"quantity_applied"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

// SnapshotLines is the JSON-stored collection of consumed materials
type SnapshotLines []SnapshotLine

// Value implements driver.Valuer for database storage
func (l SnapshotLines) Value() (driver.Value, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot lines: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (l *SnapshotLines) Scan(value any) error {
	if value == nil {
		*l = SnapshotLines{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SnapshotLines", value)
	}
	return json.Unmarshal(data, l)
}

// ConsumptionSnapshot is the immutable record of recipe-driven stock
// consumption for one service line item. At most one snapshot exists per
// (tab, item) pair; its existence is the idempotency guard against double
// deduction. MovementID is nil when the stock deduction itself failed:
// the snapshot still preserves the audit trail.
type ConsumptionSnapshot struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	TabID         uuid.UUID
	ItemID        uuid.UUID
	RecipeID      uuid.UUID
	RecipeVersion int
	VariantID     *uuid.UUID
	Lines         SnapshotLines
	MovementID    *uuid.UUID
}

// NewConsumptionSnapshot creates a snapshot for a (tab, item) pair
func NewConsumptionSnapshot(tenantID, tabID, itemID, recipeID uuid.UUID, recipeVersion int, variantID *uuid.UUID, lines SnapshotLines, movementID *uuid.UUID) (*ConsumptionSnapshot, error) {
	if recipeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPE", "Recipe ID cannot be empty")
	}
	if recipeVersion <= 0 {
		return nil, shared.NewDomainError("INVALID_RECIPE", "Recipe version must be positive")
	}
	return &ConsumptionSnapshot{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		TabID:         tabID,
		ItemID:        itemID,
		RecipeID:      recipeID,
		RecipeVersion: recipeVersion,
		VariantID:     variantID,
		Lines:         lines,
		MovementID:    movementID,
	}, nil
}

// AppliedQuantity computes the quantity deducted for one recipe line:
// ceil((standard+buffer)*multiplier) for unit-counted materials,
// round((standard+buffer)*multiplier, 3) for continuous (volume/weight)
// materials
func AppliedQuantity(standard, buffer, multiplier decimal.Decimal, continuous bool) decimal.Decimal {
	raw := standard.Add(buffer).Mul(multiplier)
	if continuous {
		return raw.Round(3)
	}
	return raw.Ceil()
}
