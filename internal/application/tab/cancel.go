package tab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// Cancel cancels a non-terminal tab with full stock and session
// compensation. Back-bar consumption already applied through recipes is
// reversed first and MUST succeed: it touches shared internal stock, so
// a failure aborts the cancellation. Retail stock returns and
// prepaid-session reverts run after the status flip and are best-effort.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req CancelTabRequest) (*TabResponse, error) {
	if !actor.Role.IsElevated() && actor.Role != shared.RoleCashier {
		return nil, shared.NewDomainError("PERMISSION_DENIED", "Role is not allowed to cancel tabs")
	}

	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if t.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot cancel a %s tab", t.Status))
		}

		if err := s.reverseConsumption(ctx, actor, t); err != nil {
			return err
		}

		if err := t.Cancel(actor.ID, req.Reason); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}

		for _, item := range t.ActiveProductItems() {
			s.reverseProductStock(ctx, actor, t, item, "tab canceled")
		}
		for _, item := range t.ActiveItems() {
			if item.SessionUsageID == nil {
				continue
			}
			if _, err := s.collab.Sessions.Revert(ctx, *item.SessionUsageID, "tab canceled"); err != nil {
				s.logger.Warn("prepaid-session revert failed",
					zap.String("tab_id", t.ID.String()),
					zap.String("item_id", item.ID.String()),
					zap.Error(err))
			}
		}

		s.audit(ctx, t, actor, tab.EventTabCanceled, tab.Metadata{
			"reason": req.Reason,
		})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// reverseConsumption returns every recipe-consumed quantity recorded in
// the tab's consumption snapshots back to the internal location. Any
// failure propagates: partial reversal of shared back-bar stock would
// leave it inconsistent across tabs.
func (s *Service) reverseConsumption(ctx context.Context, actor shared.Actor, t *tab.Tab) error {
	snapshots, err := s.tabs.FindSnapshotsByTab(ctx, t.ID)
	if err != nil {
		return err
	}

	for _, snap := range snapshots {
		for _, line := range snap.Lines {
			itemID := snap.ItemID
			if _, err := s.collab.Inventory.Adjust(ctx, tab.StockAdjustment{
				ProductID:     line.ProductID,
				TenantID:      actor.TenantID,
				ActorID:       actor.ID,
				Quantity:      line.QuantityApplied,
				Location:      tab.LocationInternal,
				MovementType:  tab.MovementReversal,
				Reason:        "tab canceled",
				ReferenceType: "tab_item",
				ReferenceID:   &itemID,
			}); err != nil {
				return shared.NewDomainError("REVERSAL_FAILED",
					fmt.Sprintf("Consumption reversal failed for product %s: %v", line.ProductID, err))
			}
		}
	}
	return nil
}

// Reopen moves a CLOSED tab back to WAITING_PAYMENT so payments can be
// corrected. Elevated roles only, with a substantive reason.
func (s *Service) Reopen(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req ReopenTabRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if err := t.Reopen(actor, req.Reason, s.cfg.ReopenMinReasonLen); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}
		s.audit(ctx, t, actor, tab.EventTabReopened, tab.Metadata{
			"reason": req.Reason,
		})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}
