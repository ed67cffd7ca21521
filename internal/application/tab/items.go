package tab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// AddItem adds a line item to a tab. PRODUCT items deduct stock at the
// retail location (kit-aware); SERVICE items resolve a performer and,
// unless opted out, try to settle against a prepaid-session balance.
func (s *Service) AddItem(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req AddItemRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if t.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot add items to a %s tab", t.Status))
		}
		if t.ClientID == nil {
			return shared.NewDomainError("NO_CLIENT", "Tab must have a linked client before adding items")
		}

		var item *tab.LineItem
		var err error
		switch req.Kind {
		case tab.ItemKindProduct:
			item, err = s.buildProductItem(ctx, actor, t, req)
		case tab.ItemKindService:
			item, err = s.buildServiceItem(ctx, actor, t, req)
		default:
			return shared.NewDomainError("INVALID_KIND", "Item kind must be SERVICE or PRODUCT")
		}
		if err != nil {
			return err
		}

		if err := t.AddItem(item); err != nil {
			s.rollbackItemBuild(ctx, actor, t, item, "item add aborted")
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			s.rollbackItemBuild(ctx, actor, t, item, "item add aborted")
			return err
		}

		s.audit(ctx, t, actor, tab.EventItemAdded, tab.Metadata{
			"item_id":         item.ID,
			"kind":            string(item.Kind),
			"description":     item.Description,
			"quantity":        item.Quantity,
			"unit_price":      item.UnitPrice,
			"package_settled": item.PackageSettled,
		})

		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// buildProductItem validates the product and performs the stock deduction.
// Stock failures on this path are caller-visible: a sale that cannot be
// backed by stock must not land on the tab.
func (s *Service) buildProductItem(ctx context.Context, actor shared.Actor, t *tab.Tab, req AddItemRequest) (*tab.LineItem, error) {
	if req.ProductID == nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required for product items")
	}
	product, err := s.collab.Catalog.GetProduct(ctx, actor.TenantID, *req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Sellable {
		return nil, shared.NewDomainError("NOT_SELLABLE", "Product is not flagged for sale")
	}

	unitPrice := product.RetailPrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	item, err := tab.NewProductItem(t.ID, product.ID, product.Name, req.Quantity,
		valueobject.NewMoneyBRL(unitPrice), valueobject.NewMoneyBRL(req.Discount))
	if err != nil {
		return nil, err
	}

	if product.IsKit {
		groupID, err := s.collab.Inventory.DeductKit(ctx, tab.KitDeduction{
			KitProductID: product.ID,
			TenantID:     actor.TenantID,
			ActorID:      actor.ID,
			Quantity:     req.Quantity,
			Location:     tab.LocationRetail,
			ReferenceID:  item.ID,
		})
		if err != nil {
			return nil, err
		}
		item.SetKitGroup(groupID)
		return item, nil
	}

	itemID := item.ID
	if _, err := s.collab.Inventory.Adjust(ctx, tab.StockAdjustment{
		ProductID:     product.ID,
		TenantID:      actor.TenantID,
		ActorID:       actor.ID,
		Quantity:      req.Quantity.Neg(),
		Location:      tab.LocationRetail,
		MovementType:  tab.MovementSale,
		Reason:        "tab item sale",
		ReferenceType: "tab_item",
		ReferenceID:   &itemID,
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// buildServiceItem resolves the performer chain and the prepaid-session
// offset for a SERVICE item
func (s *Service) buildServiceItem(ctx context.Context, actor shared.Actor, t *tab.Tab, req AddItemRequest) (*tab.LineItem, error) {
	if req.ServiceID == nil {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service ID is required for service items")
	}
	svc, err := s.collab.Catalog.GetService(ctx, actor.TenantID, *req.ServiceID)
	if err != nil {
		return nil, err
	}

	unitPrice := svc.BasePrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	item, err := tab.NewServiceItem(t.ID, svc.ID, req.VariantID, svc.Name, req.Quantity,
		valueobject.NewMoneyBRL(unitPrice), valueobject.NewMoneyBRL(req.Discount))
	if err != nil {
		return nil, err
	}

	performerID := req.PerformerID
	if performerID == nil {
		performerID, err = s.resolvePerformer(ctx, actor, t)
		if err != nil {
			return nil, err
		}
	}
	if err := item.AssignPerformer(*performerID); err != nil {
		return nil, err
	}

	if !req.SkipPackage {
		s.tryPackageSettlement(ctx, actor, t, item, svc.ID)
	}
	return item, nil
}

// resolvePerformer resolves the performing staff member by priority:
// the acting user when frontline, then the originating appointment's
// performer, then the tab opener when frontline. No match is a
// caller-visible failure requiring explicit assignment.
func (s *Service) resolvePerformer(ctx context.Context, actor shared.Actor, t *tab.Tab) (*uuid.UUID, error) {
	if actor.Role.IsFrontline() {
		id := actor.ID
		return &id, nil
	}

	if t.AppointmentID != nil {
		performer, err := s.collab.Staff.GetAppointmentPerformer(ctx, actor.TenantID, *t.AppointmentID)
		if err != nil {
			s.logger.Warn("failed to resolve appointment performer",
				zap.String("tab_id", t.ID.String()), zap.Error(err))
		} else if performer != nil {
			return performer, nil
		}
	}

	role, err := s.collab.Staff.GetRole(ctx, actor.TenantID, t.OpenedBy)
	if err != nil {
		s.logger.Warn("failed to resolve opener role",
			zap.String("tab_id", t.ID.String()), zap.Error(err))
	} else if role.IsFrontline() {
		id := t.OpenedBy
		return &id, nil
	}

	return nil, shared.NewDomainError("PERFORMER_REQUIRED", "Service items require an explicit performer assignment")
}

// tryPackageSettlement consumes one prepaid session for the item when the
// client has a usable balance. Consumption failures silently fall back to
// normal pricing.
func (s *Service) tryPackageSettlement(ctx context.Context, actor shared.Actor, t *tab.Tab, item *tab.LineItem, serviceID uuid.UUID) {
	balance, err := s.collab.Sessions.CheckAvailable(ctx, *t.ClientID, serviceID)
	if err != nil {
		s.logger.Warn("prepaid-session check failed, falling back to normal pricing",
			zap.String("tab_id", t.ID.String()), zap.Error(err))
		return
	}
	if balance == nil || !balance.Available {
		return
	}

	usage, err := s.collab.Sessions.Consume(ctx, tab.SessionConsumption{
		TenantID:    actor.TenantID,
		PackageID:   balance.PackageID,
		ServiceID:   serviceID,
		TabID:       t.ID,
		PerformerID: item.PerformerID,
	})
	if err != nil {
		s.logger.Warn("prepaid-session consumption failed, falling back to normal pricing",
			zap.String("tab_id", t.ID.String()), zap.Error(err))
		return
	}
	if err := item.SettleWithPackage(usage.UsageID); err != nil {
		s.logger.Warn("failed to mark item as package-settled",
			zap.String("tab_id", t.ID.String()), zap.Error(err))
	}
}

// UpdateItem applies partial updates to a line item. Quantity changes on
// simple PRODUCT items issue compensating stock adjustments for the
// delta; adjustment failures are logged, never blocking the mutation.
func (s *Service) UpdateItem(ctx context.Context, actor shared.Actor, tabID, itemID uuid.UUID, req UpdateItemRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if t.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot modify items on a %s tab", t.Status))
		}
		item := t.Item(itemID)
		if item == nil {
			return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
		}

		var stockDelta decimal.Decimal
		changes := tab.Metadata{"item_id": itemID}

		if req.Quantity != nil {
			if item.Kind == tab.ItemKindProduct && item.KitGroupID != nil {
				return shared.NewDomainError("INVALID_STATE",
					"Kit item quantities cannot be changed; remove and re-add the item")
			}
			before := item.Quantity
			delta, err := t.UpdateItemQuantity(itemID, *req.Quantity)
			if err != nil {
				return err
			}
			stockDelta = delta
			changes["quantity_before"] = before
			changes["quantity_after"] = *req.Quantity
		}
		if req.Discount != nil {
			before := item.Discount
			if err := t.SetItemDiscount(itemID, valueobject.NewMoneyBRL(*req.Discount)); err != nil {
				return err
			}
			changes["discount_before"] = before
			changes["discount_after"] = *req.Discount
		}
		if req.PerformerID != nil {
			before := item.PerformerID
			if err := item.AssignPerformer(*req.PerformerID); err != nil {
				return err
			}
			changes["performer_before"] = before
			changes["performer_after"] = *req.PerformerID
		}

		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}

		// Compensate stock for the quantity delta: selling more means a
		// further deduction, selling less returns the difference.
		if item.Kind == tab.ItemKindProduct && !stockDelta.IsZero() && item.ProductID != nil {
			if _, err := s.collab.Inventory.Adjust(ctx, tab.StockAdjustment{
				ProductID:     *item.ProductID,
				TenantID:      actor.TenantID,
				ActorID:       actor.ID,
				Quantity:      stockDelta.Neg(),
				Location:      tab.LocationRetail,
				MovementType:  tab.MovementSale,
				Reason:        "tab item quantity change",
				ReferenceType: "tab_item",
				ReferenceID:   &itemID,
			}); err != nil {
				s.logger.Warn("compensating stock adjustment failed",
					zap.String("tab_id", t.ID.String()),
					zap.String("item_id", itemID.String()),
					zap.Error(err))
			}
		}

		s.audit(ctx, t, actor, tab.EventItemUpdated, changes)
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// RemoveItem soft-cancels a line item, reversing its stock (kit-aware)
// and reverting any consumed prepaid session. Reversal failures are
// logged, never blocking the removal.
func (s *Service) RemoveItem(ctx context.Context, actor shared.Actor, tabID, itemID uuid.UUID, req RemoveItemRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		item, err := t.CancelItem(itemID, actor.ID, req.Reason)
		if err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}

		if item.Kind == tab.ItemKindProduct {
			s.reverseProductStock(ctx, actor, t, item, "tab item removed")
		}
		if item.SessionUsageID != nil {
			if _, err := s.collab.Sessions.Revert(ctx, *item.SessionUsageID, "tab item removed"); err != nil {
				s.logger.Warn("prepaid-session revert failed",
					zap.String("tab_id", t.ID.String()),
					zap.String("item_id", itemID.String()),
					zap.Error(err))
			}
		}

		s.audit(ctx, t, actor, tab.EventItemCanceled, tab.Metadata{
			"item_id": itemID,
			"reason":  req.Reason,
		})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// rollbackItemBuild undoes the side effects of a built item when the add
// aborts: product stock comes back and a consumed prepaid session is
// reverted, both best-effort.
func (s *Service) rollbackItemBuild(ctx context.Context, actor shared.Actor, t *tab.Tab, item *tab.LineItem, reason string) {
	if item.Kind == tab.ItemKindProduct {
		s.reverseProductStock(ctx, actor, t, item, reason)
	}
	if item.SessionUsageID != nil {
		if _, err := s.collab.Sessions.Revert(ctx, *item.SessionUsageID, reason); err != nil {
			s.logger.Warn("prepaid-session revert failed",
				zap.String("tab_id", t.ID.String()),
				zap.String("item_id", item.ID.String()),
				zap.Error(err))
		}
	}
}

// reverseProductStock returns the full stock of a product item,
// kit-aware, best-effort
func (s *Service) reverseProductStock(ctx context.Context, actor shared.Actor, t *tab.Tab, item *tab.LineItem, reason string) {
	if item.KitGroupID != nil {
		if err := s.collab.Inventory.ReverseKit(ctx, *item.KitGroupID, actor.ID, reason, item.ID); err != nil {
			s.logger.Warn("kit stock reversal failed",
				zap.String("tab_id", t.ID.String()),
				zap.String("item_id", item.ID.String()),
				zap.Error(err))
		}
		return
	}
	if item.ProductID == nil {
		return
	}
	itemID := item.ID
	if _, err := s.collab.Inventory.Adjust(ctx, tab.StockAdjustment{
		ProductID:     *item.ProductID,
		TenantID:      actor.TenantID,
		ActorID:       actor.ID,
		Quantity:      item.Quantity,
		Location:      tab.LocationRetail,
		MovementType:  tab.MovementSaleReturn,
		Reason:        reason,
		ReferenceType: "tab_item",
		ReferenceID:   &itemID,
	}); err != nil {
		s.logger.Warn("stock reversal failed",
			zap.String("tab_id", t.ID.String()),
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
	}
}

// ApplyManualDiscount sets the tab-level manual discount. Gated to roles
// allowed to grant discounts.
func (s *Service) ApplyManualDiscount(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req ManualDiscountRequest) (*TabResponse, error) {
	if !actor.Role.IsElevated() && actor.Role != shared.RoleCashier {
		return nil, shared.NewDomainError("PERMISSION_DENIED", "Role is not allowed to apply manual discounts")
	}

	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		before := t.ManualDiscount
		if err := t.ApplyManualDiscount(valueobject.NewMoneyBRL(req.Amount)); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}
		s.audit(ctx, t, actor, tab.EventDiscountApplied, tab.Metadata{
			"discount_before": before,
			"discount_after":  req.Amount,
			"reason":          req.Reason,
		})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}
