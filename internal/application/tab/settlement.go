package tab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// CloseService closes the service phase of a tab: runs the recipe
// consumption pass and moves the tab to WAITING_PAYMENT.
func (s *Service) CloseService(ctx context.Context, actor shared.Actor, tabID uuid.UUID) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if err := t.CloseService(actor.ID); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}

		warnings := s.consumeRecipes(ctx, actor, t)
		s.audit(ctx, t, actor, tab.EventTabServiceClosed, tab.Metadata{
			"net":      t.Net,
			"warnings": warnings,
		})

		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// AddPayment records a payment on a tab. Fee rules resolve with the
// destination-level rule taking priority over the method-level rule.
// When the new payment covers the net total within tolerance the tab is
// auto-closed, equivalent to a manual cashier close.
func (s *Service) AddPayment(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req AddPaymentRequest) (*AddPaymentResult, error) {
	var result *AddPaymentResult
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		rule, err := s.collab.Fees.Resolve(ctx, actor.TenantID, req.MethodID, req.DestinationID)
		if err != nil {
			return err
		}

		payment, err := tab.NewPayment(t.ID, req.Method, req.MethodID, req.DestinationID,
			valueobject.NewMoneyBRL(req.Amount), rule, actor.ID)
		if err != nil {
			return err
		}
		if err := t.AddPayment(payment); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}

		s.audit(ctx, t, actor, tab.EventPaymentRecorded, tab.Metadata{
			"payment_id": payment.ID,
			"method":     payment.Method,
			"amount":     payment.Amount,
			"fee":        payment.FeeAmount,
			"net":        payment.NetAmount,
			"total_paid": t.TotalPaid(),
		})

		result = &AddPaymentResult{Tab: ToTabResponse(t), Payment: ToPaymentResponse(payment)}

		if t.Status != tab.TabStatusClosed && t.IsFullyPaid(s.cfg.PaymentTolerance) {
			warnings, _, err := s.settle(ctx, actor, t)
			if err != nil {
				// The payment stands; the tab stays open for a manual close.
				s.logger.Warn("auto-close failed after covering payment",
					zap.String("tab_id", t.ID.String()), zap.Error(err))
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("auto-close failed: %v", err))
			} else {
				result.AutoClosed = true
				result.Warnings = append(result.Warnings, warnings...)
			}
			result.Tab = ToTabResponse(t)
		}
		return nil
	})
	return result, err
}

// CloseCashier performs the manual cashier close on a WAITING_PAYMENT
// tab (or a still-open tab, closing the service phase on the way).
func (s *Service) CloseCashier(ctx context.Context, actor shared.Actor, tabID uuid.UUID) (*CloseResult, error) {
	var result *CloseResult
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		warnings, loyalty, err := s.settle(ctx, actor, t)
		if err != nil {
			return err
		}
		result = &CloseResult{Tab: ToTabResponse(t), Loyalty: loyalty, Warnings: warnings}
		return nil
	})
	return result, err
}

// settle finalizes a tab: closes the service phase when it never was
// (running the consumption pass), flips the status to CLOSED, persists,
// then runs the post-close side effects. The caller holds the tab lock.
func (s *Service) settle(ctx context.Context, actor shared.Actor, t *tab.Tab) ([]string, *tab.LoyaltyResult, error) {
	var warnings []string

	if !t.ServiceClosed() {
		if t.Status != tab.TabStatusWaitingPayment {
			if err := t.CloseService(actor.ID); err != nil {
				return nil, nil, err
			}
		}
		warnings = append(warnings, s.consumeRecipes(ctx, actor, t)...)
	}

	if err := t.Close(actor.ID, s.cfg.PaymentTolerance); err != nil {
		return nil, nil, err
	}
	if err := s.tabs.SaveWithLock(ctx, t); err != nil {
		return nil, nil, err
	}

	postWarnings, loyalty := s.runPostClose(ctx, actor, t)
	warnings = append(warnings, postWarnings...)

	s.audit(ctx, t, actor, tab.EventTabClosed, tab.Metadata{
		"net":        t.Net,
		"total_paid": t.TotalPaid(),
		"warnings":   warnings,
	})
	return warnings, loyalty, nil
}

// runPostClose performs the best-effort side effects of a close, in
// order: cash-session totals per payment method, client last visit,
// commissions, loyalty points. Failures become warnings, never errors;
// the tab is already CLOSED when this runs.
func (s *Service) runPostClose(ctx context.Context, actor shared.Actor, t *tab.Tab) ([]string, *tab.LoyaltyResult) {
	var warnings []string
	var loyalty *tab.LoyaltyResult

	for idx := range t.Payments {
		p := &t.Payments[idx]
		if err := s.collab.CashDrawer.RecordSettlement(ctx, actor.TenantID, p.Method, p.Paid()); err != nil {
			warnings = append(warnings, fmt.Sprintf("cash-session update for %s failed: %v", p.Method, err))
		}
	}

	if t.ClientID != nil {
		if err := s.collab.Clients.UpdateLastVisit(ctx, *t.ClientID); err != nil {
			warnings = append(warnings, fmt.Sprintf("client last-visit update failed: %v", err))
		}
	}

	for _, item := range t.ActiveServiceItems() {
		if item.PerformerID == nil {
			continue
		}
		if err := s.collab.Commissions.CreateFromItem(ctx, tab.CommissionRequest{
			TenantID:    actor.TenantID,
			TabID:       t.ID,
			ItemID:      item.ID,
			PerformerID: *item.PerformerID,
			Description: item.Description,
			Amount:      item.Total,
			Percentage:  s.cfg.CommissionPercent,
		}); err != nil {
			warnings = append(warnings, fmt.Sprintf("commission for item %s failed: %v", item.ID, err))
		}
	}

	if t.ClientID != nil {
		res, err := s.collab.Loyalty.ProcessTabPoints(ctx, actor.TenantID, t.ID, *t.ClientID, actor.ID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("loyalty accrual failed: %v", err))
		} else {
			loyalty = res
		}
	}

	for _, w := range warnings {
		s.logger.Warn("post-close side effect failed",
			zap.String("tab_id", t.ID.String()), zap.String("warning", w))
	}
	return warnings, loyalty
}
