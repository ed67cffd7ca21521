package tab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// consumeRecipes runs back-bar consumption for every active service item
// on the tab. The pass is idempotent: an existing snapshot for an item
// means its recipe was already applied, so the item is skipped. Each
// deduction is fault-isolated; a failed line is recorded as a warning and
// never blocks the settlement.
func (s *Service) consumeRecipes(ctx context.Context, actor shared.Actor, t *tab.Tab) []string {
	var warnings []string

	for _, item := range t.ActiveServiceItems() {
		exists, err := s.tabs.SnapshotExists(ctx, t.ID, item.ID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("item %s: snapshot lookup failed: %v", item.ID, err))
			continue
		}
		if exists {
			continue
		}

		recipe, err := s.collab.Recipes.GetActive(ctx, *item.ServiceID, actor.TenantID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("item %s: recipe lookup failed: %v", item.ID, err))
			continue
		}
		if recipe == nil || len(recipe.Lines) == 0 {
			continue
		}

		w := s.consumeRecipe(ctx, actor, t, item, recipe)
		warnings = append(warnings, w...)
	}
	return warnings
}

// consumeRecipe deducts one item's recipe lines from the internal
// location and writes the consumption snapshot. The snapshot is written
// even when every deduction fails: the attempt itself must not repeat.
func (s *Service) consumeRecipe(ctx context.Context, actor shared.Actor, t *tab.Tab, item *tab.LineItem, recipe *tab.Recipe) []string {
	var warnings []string

	multiplier := recipe.Multiplier(item.VariantID)
	lines := make(tab.SnapshotLines, 0, len(recipe.Lines))
	var firstMovement *uuid.UUID

	for _, line := range recipe.Lines {
		qty := tab.AppliedQuantity(line.Standard, line.Buffer, multiplier, line.Continuous)
		qty = qty.Mul(item.Quantity)
		if qty.IsZero() {
			continue
		}

		itemID := item.ID
		movement, err := s.collab.Inventory.Adjust(ctx, tab.StockAdjustment{
			ProductID:     line.ProductID,
			TenantID:      actor.TenantID,
			ActorID:       actor.ID,
			Quantity:      qty.Neg(),
			Location:      tab.LocationInternal,
			MovementType:  tab.MovementConsumption,
			Reason:        "recipe consumption",
			ReferenceType: "tab_item",
			ReferenceID:   &itemID,
		})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"item %s: consumption of product %s failed: %v", item.ID, line.ProductID, err))
			continue
		}
		if firstMovement == nil {
			id := movement.ID
			firstMovement = &id
		}
		lines = append(lines, tab.SnapshotLine{
			ProductID:       line.ProductID,
			QuantityApplied: qty,
			UnitCost:        line.UnitCost,
		})
	}

	snapshot, err := tab.NewConsumptionSnapshot(
		actor.TenantID, t.ID, item.ID, recipe.ID, recipe.Version, item.VariantID, lines, firstMovement)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("item %s: snapshot build failed: %v", item.ID, err))
		return warnings
	}
	if err := s.tabs.SaveSnapshot(ctx, snapshot); err != nil {
		warnings = append(warnings, fmt.Sprintf("item %s: snapshot save failed: %v", item.ID, err))
		return warnings
	}

	s.audit(ctx, t, actor, tab.EventRecipeConsumed, tab.Metadata{
		"item_id":        item.ID,
		"recipe_id":      recipe.ID,
		"recipe_version": recipe.Version,
		"lines_applied":  len(lines),
		"lines_total":    len(recipe.Lines),
	})
	if len(lines) < len(recipe.Lines) {
		s.logger.Warn("recipe partially consumed",
			zap.String("tab_id", t.ID.String()),
			zap.String("item_id", item.ID.String()),
			zap.Int("applied", len(lines)),
			zap.Int("total", len(recipe.Lines)))
	}
	return warnings
}
