package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormInventory maintains per-location stock balances and the movement
// ledger. Every balance change is applied inside a transaction together
// with its ledger row.
type GormInventory struct {
	db *gorm.DB
}

// NewGormInventory creates an inventory adapter backed by the given database
func NewGormInventory(db *gorm.DB) *GormInventory {
	return &GormInventory{db: db}
}

// Adjust applies a single signed stock adjustment and records it in the
// ledger. Outbound adjustments fail when the balance would go negative.
func (i *GormInventory) Adjust(ctx context.Context, adj tab.StockAdjustment) (*tab.StockMovement, error) {
	var movement *tab.StockMovement
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := applyAdjustment(tx, adj, nil)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// DeductKit deducts every component of a kit atomically and tags the
// resulting movements with a shared group id so the whole deduction can
// be reversed later.
func (i *GormInventory) DeductKit(ctx context.Context, deduction tab.KitDeduction) (uuid.UUID, error) {
	groupID := uuid.New()
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var components []KitComponentModel
		if err := tx.
			Where("kit_product_id = ? AND tenant_id = ?", deduction.KitProductID, deduction.TenantID).
			Find(&components).Error; err != nil {
			return err
		}
		if len(components) == 0 {
			return shared.NewDomainError("INVALID_PRODUCT", "Kit has no components")
		}
		refID := deduction.ReferenceID
		for _, comp := range components {
			adj := tab.StockAdjustment{
				ProductID:     comp.ComponentID,
				TenantID:      deduction.TenantID,
				ActorID:       deduction.ActorID,
				Quantity:      comp.Quantity.Mul(deduction.Quantity).Neg(),
				Location:      deduction.Location,
				MovementType:  tab.MovementSale,
				Reason:        "Kit component deduction",
				ReferenceType: "tab_item",
				ReferenceID:   &refID,
			}
			if _, err := applyAdjustment(tx, adj, &groupID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return groupID, nil
}

// ReverseKit restores every movement recorded under the group id with an
// opposite adjustment.
func (i *GormInventory) ReverseKit(ctx context.Context, groupID, actorID uuid.UUID, reason string, referenceID uuid.UUID) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var moves []StockMovementModel
		if err := tx.Where("group_id = ?", groupID).Find(&moves).Error; err != nil {
			return err
		}
		if len(moves) == 0 {
			return shared.NewDomainError("REVERSAL_FAILED", "No movements recorded for kit group")
		}
		for _, mv := range moves {
			refID := referenceID
			adj := tab.StockAdjustment{
				ProductID:     mv.ProductID,
				TenantID:      mv.TenantID,
				ActorID:       actorID,
				Quantity:      mv.Quantity.Neg(),
				Location:      tab.StockLocation(mv.Location),
				MovementType:  tab.MovementReversal,
				Reason:        reason,
				ReferenceType: "tab_item",
				ReferenceID:   &refID,
			}
			if _, err := applyAdjustment(tx, adj, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyAdjustment updates the balance row and appends the ledger entry.
// The balance row is created lazily on first inbound movement.
func applyAdjustment(tx *gorm.DB, adj tab.StockAdjustment, groupID *uuid.UUID) (*tab.StockMovement, error) {
	now := time.Now()

	var stock ProductStockModel
	err := tx.
		Where("product_id = ? AND tenant_id = ? AND location = ?", adj.ProductID, adj.TenantID, adj.Location).
		First(&stock).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if adj.Quantity.IsNegative() {
			return nil, shared.ErrInsufficientStock
		}
		stock = ProductStockModel{
			ID:        uuid.New(),
			TenantID:  adj.TenantID,
			ProductID: adj.ProductID,
			Location:  string(adj.Location),
			Quantity:  adj.Quantity,
			UpdatedAt: now,
		}
		if err := tx.Create(&stock).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		newQty := stock.Quantity.Add(adj.Quantity)
		if newQty.IsNegative() {
			return nil, shared.ErrInsufficientStock
		}
		result := tx.Model(&ProductStockModel{}).
			Where("id = ? AND quantity = ?", stock.ID, stock.Quantity).
			Updates(map[string]any{"quantity": newQty, "updated_at": now})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, shared.ErrConcurrencyConflict
		}
	}

	move := StockMovementModel{
		ID:            uuid.New(),
		TenantID:      adj.TenantID,
		ProductID:     adj.ProductID,
		ActorID:       adj.ActorID,
		Quantity:      adj.Quantity,
		Location:      string(adj.Location),
		MovementType:  string(adj.MovementType),
		Reason:        adj.Reason,
		ReferenceType: adj.ReferenceType,
		ReferenceID:   adj.ReferenceID,
		GroupID:       groupID,
		CreatedAt:     now,
	}
	if err := tx.Create(&move).Error; err != nil {
		return nil, err
	}
	return &tab.StockMovement{
		ID:        move.ID,
		ProductID: move.ProductID,
		Quantity:  move.Quantity,
		Location:  tab.StockLocation(move.Location),
	}, nil
}

var _ tab.InventoryService = (*GormInventory)(nil)
