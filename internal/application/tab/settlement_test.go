package tab

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// allowPostClose stubs the best-effort post-close collaborators
func allowPostClose(f *engineFixture) {
	f.cashDrawer.On("RecordSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.clients.On("UpdateLastVisit", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.commissions.On("CreateFromItem", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.loyalty.On("ProcessTabPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&tab.LoyaltyResult{PointsEarned: 9}, nil).Maybe()
}

// noRecipes stubs the recipe resolver to return nothing
func noRecipes(f *engineFixture) {
	f.recipes.On("GetActive", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound).Maybe()
	f.repo.On("SnapshotExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
}

func TestServiceCloseService(t *testing.T) {
	actor := testActor(shared.RoleProfessional)

	t.Run("moves to waiting payment and runs consumption", func(t *testing.T) {
		f := newEngineFixture()
		tb := buildTab(t, actor, 7)
		item := buildServiceLine(t, tb, 100.00)
		recipe := &tab.Recipe{
			ID:      uuid.New(),
			Version: 1,
			Lines: []tab.RecipeLine{
				{ProductID: uuid.New(), Standard: decimal.NewFromFloat(10.0), Buffer: decimal.NewFromFloat(2.0), Continuous: true},
			},
		}

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.repo.On("SnapshotExists", mock.Anything, tb.ID, item.ID).Return(false, nil)
		f.recipes.On("GetActive", mock.Anything, *item.ServiceID, actor.TenantID).Return(recipe, nil)
		f.inventory.On("Adjust", mock.Anything, mock.MatchedBy(func(adj tab.StockAdjustment) bool {
			return adj.Quantity.Equal(decimal.NewFromFloat(-12.0)) &&
				adj.Location == tab.LocationInternal &&
				adj.MovementType == tab.MovementConsumption
		})).Return(&tab.StockMovement{ID: uuid.New()}, nil)
		f.repo.On("SaveSnapshot", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.svc.CloseService(ctx, actor, tb.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.TabStatusWaitingPayment, resp.Status)
		assert.NotNil(t, resp.ServiceClosedAt)
		f.inventory.AssertExpectations(t)
		f.repo.AssertCalled(t, "SaveSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("existing snapshot skips the deduction", func(t *testing.T) {
		f := newEngineFixture()
		tb := buildTab(t, actor, 7)
		item := buildServiceLine(t, tb, 100.00)

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.repo.On("SnapshotExists", mock.Anything, tb.ID, item.ID).Return(true, nil)

		_, err := f.svc.CloseService(ctx, actor, tb.ID)
		require.NoError(t, err)
		f.recipes.AssertNotCalled(t, "GetActive", mock.Anything, mock.Anything, mock.Anything)
		f.inventory.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything)
	})

	t.Run("failed recipe line never blocks the transition", func(t *testing.T) {
		f := newEngineFixture()
		tb := buildTab(t, actor, 7)
		item := buildServiceLine(t, tb, 100.00)
		recipe := &tab.Recipe{
			ID:      uuid.New(),
			Version: 1,
			Lines: []tab.RecipeLine{
				{ProductID: uuid.New(), Standard: decimal.NewFromInt(1)},
			},
		}

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.repo.On("SnapshotExists", mock.Anything, tb.ID, item.ID).Return(false, nil)
		f.recipes.On("GetActive", mock.Anything, *item.ServiceID, actor.TenantID).Return(recipe, nil)
		f.inventory.On("Adjust", mock.Anything, mock.Anything).Return(nil, shared.ErrInsufficientStock)
		f.repo.On("SaveSnapshot", mock.Anything, mock.MatchedBy(func(s *tab.ConsumptionSnapshot) bool {
			return s.MovementID == nil && len(s.Lines) == 0
		})).Return(nil)

		resp, err := f.svc.CloseService(ctx, actor, tb.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.TabStatusWaitingPayment, resp.Status)
		f.repo.AssertCalled(t, "SaveSnapshot", mock.Anything, mock.Anything)
	})
}

func TestServiceAddPayment(t *testing.T) {
	actor := testActor(shared.RoleCashier)

	waitingTab := func(t *testing.T, net float64) *tab.Tab {
		t.Helper()
		tb := buildTab(t, actor, 7)
		buildServiceLine(t, tb, net)
		require.NoError(t, tb.CloseService(actor.ID))
		return tb
	}

	t.Run("partial payment records without closing", func(t *testing.T) {
		f := newEngineFixture()
		tb := waitingTab(t, 90.00)

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.fees.On("Resolve", mock.Anything, actor.TenantID, mock.Anything, mock.Anything).Return(nil, nil)

		result, err := f.svc.AddPayment(ctx, actor, tb.ID, AddPaymentRequest{
			Method: "cash", Amount: decimal.NewFromFloat(40.00),
		})
		require.NoError(t, err)
		assert.False(t, result.AutoClosed)
		assert.Equal(t, tab.TabStatusWaitingPayment, result.Tab.Status)
	})

	t.Run("covering payment auto-closes exactly once", func(t *testing.T) {
		f := newEngineFixture()
		tb := waitingTab(t, 90.00)
		tb.ServiceClosedAt = nil // service never explicitly closed
		tb.Status = tab.TabStatusInService

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.fees.On("Resolve", mock.Anything, actor.TenantID, mock.Anything, mock.Anything).Return(nil, nil)
		noRecipes(f)
		allowPostClose(f)

		result, err := f.svc.AddPayment(ctx, actor, tb.ID, AddPaymentRequest{
			Method: "cash", Amount: decimal.NewFromFloat(90.00),
		})
		require.NoError(t, err)
		assert.True(t, result.AutoClosed)
		assert.Equal(t, tab.TabStatusClosed, result.Tab.Status)
		assert.NotNil(t, result.Tab.CashierClosedAt)

		// a second qualifying payment is rejected: the tab is terminal
		_, err = f.svc.AddPayment(ctx, actor, tb.ID, AddPaymentRequest{
			Method: "cash", Amount: decimal.NewFromFloat(90.00),
		})
		require.Error(t, err)
	})

	t.Run("fee keeps the tab short of the net total", func(t *testing.T) {
		f := newEngineFixture()
		tb := waitingTab(t, 100.00)
		rule := &tab.FeeRule{Mode: tab.FeeModePercent, Value: decimal.NewFromInt(3)}

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		methodID := uuid.New()
		f.fees.On("Resolve", mock.Anything, actor.TenantID, &methodID, (*uuid.UUID)(nil)).Return(rule, nil)

		result, err := f.svc.AddPayment(ctx, actor, tb.ID, AddPaymentRequest{
			MethodID: &methodID, Amount: decimal.NewFromFloat(100.00),
		})
		require.NoError(t, err)
		assert.False(t, result.AutoClosed)
		assert.True(t, result.Payment.FeeAmount.Equal(decimal.NewFromFloat(3.00)))
		assert.True(t, result.Payment.NetAmount.Equal(decimal.NewFromFloat(97.00)))
	})

	t.Run("one cent under still closes within tolerance", func(t *testing.T) {
		f := newEngineFixture()
		tb := waitingTab(t, 90.00)

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.fees.On("Resolve", mock.Anything, actor.TenantID, mock.Anything, mock.Anything).Return(nil, nil)
		noRecipes(f)
		allowPostClose(f)

		result, err := f.svc.AddPayment(ctx, actor, tb.ID, AddPaymentRequest{
			Method: "cash", Amount: decimal.NewFromFloat(89.99),
		})
		require.NoError(t, err)
		assert.True(t, result.AutoClosed)
	})
}

func TestServiceCloseCashier(t *testing.T) {
	actor := testActor(shared.RoleCashier)

	paidTab := func(t *testing.T) *tab.Tab {
		t.Helper()
		tb := buildTab(t, actor, 7)
		buildServiceLine(t, tb, 90.00)
		require.NoError(t, tb.CloseService(actor.ID))
		p, err := tab.NewPayment(tb.ID, "cash", nil, nil, decimalMoney(90.00), nil, actor.ID)
		require.NoError(t, err)
		require.NoError(t, tb.AddPayment(p))
		return tb
	}

	t.Run("closes a fully paid tab and runs side effects", func(t *testing.T) {
		f := newEngineFixture()
		tb := paidTab(t)

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.cashDrawer.On("RecordSettlement", mock.Anything, actor.TenantID, "cash",
			mock.MatchedBy(func(a decimal.Decimal) bool { return a.Equal(decimal.NewFromFloat(90.00)) })).Return(nil)
		f.clients.On("UpdateLastVisit", mock.Anything, *tb.ClientID).Return(nil)
		f.commissions.On("CreateFromItem", mock.Anything, mock.Anything).Return(nil)
		f.loyalty.On("ProcessTabPoints", mock.Anything, actor.TenantID, tb.ID, *tb.ClientID, actor.ID).
			Return(&tab.LoyaltyResult{PointsEarned: 9}, nil)

		result, err := f.svc.CloseCashier(ctx, actor, tb.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.TabStatusClosed, result.Tab.Status)
		assert.Empty(t, result.Warnings)
		require.NotNil(t, result.Loyalty)
		assert.Equal(t, 9, result.Loyalty.PointsEarned)
		f.cashDrawer.AssertExpectations(t)
		f.commissions.AssertExpectations(t)
	})

	t.Run("underpaid tab fails with insufficient funds", func(t *testing.T) {
		f := newEngineFixture()
		tb := buildTab(t, actor, 7)
		buildServiceLine(t, tb, 90.00)
		require.NoError(t, tb.CloseService(actor.ID))

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)

		_, err := f.svc.CloseCashier(ctx, actor, tb.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not cover")
		assert.Equal(t, tab.TabStatusWaitingPayment, tb.Status)
	})

	t.Run("side-effect failures become warnings, never errors", func(t *testing.T) {
		f := newEngineFixture()
		tb := paidTab(t)

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.cashDrawer.On("RecordSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("drawer service down"))
		f.clients.On("UpdateLastVisit", mock.Anything, mock.Anything).Return(errors.New("crm down"))
		f.commissions.On("CreateFromItem", mock.Anything, mock.Anything).Return(errors.New("payroll down"))
		f.loyalty.On("ProcessTabPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("loyalty down"))

		result, err := f.svc.CloseCashier(ctx, actor, tb.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.TabStatusClosed, result.Tab.Status)
		assert.Len(t, result.Warnings, 4)
	})

	t.Run("closing without prior service close runs consumption first", func(t *testing.T) {
		f := newEngineFixture()
		tb := buildTab(t, actor, 7)
		item := buildServiceLine(t, tb, 90.00)
		p, err := tab.NewPayment(tb.ID, "cash", nil, nil, decimalMoney(90.00), nil, actor.ID)
		require.NoError(t, err)
		require.NoError(t, tb.AddPayment(p))

		f.repo.On("FindByIDForTenant", mock.Anything, actor.TenantID, tb.ID).Return(tb, nil)
		f.repo.On("SaveWithLock", mock.Anything, tb).Return(nil)
		f.repo.On("SnapshotExists", mock.Anything, tb.ID, item.ID).Return(false, nil)
		f.recipes.On("GetActive", mock.Anything, *item.ServiceID, actor.TenantID).Return(nil, shared.ErrNotFound)
		allowPostClose(f)

		result, err := f.svc.CloseCashier(ctx, actor, tb.ID)
		require.NoError(t, err)
		assert.Equal(t, tab.TabStatusClosed, result.Tab.Status)
		f.repo.AssertCalled(t, "SnapshotExists", mock.Anything, tb.ID, item.ID)
	})
}
