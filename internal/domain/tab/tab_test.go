package tab

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
)

func newTestTab(t *testing.T) *Tab {
	t.Helper()
	clientID := uuid.New()
	tab, err := NewTab(uuid.New(), 7, uuid.New(), &clientID, nil)
	require.NoError(t, err)
	return tab
}

func addServiceItem(t *testing.T, tb *Tab, price, discount float64) *LineItem {
	t.Helper()
	item, err := NewServiceItem(tb.ID, uuid.New(), nil, "Haircut",
		decimal.NewFromInt(1),
		valueobject.NewMoneyBRLFromFloat(price),
		valueobject.NewMoneyBRLFromFloat(discount))
	require.NoError(t, err)
	require.NoError(t, tb.AddItem(item))
	return tb.Item(item.ID)
}

func addProductItem(t *testing.T, tb *Tab, qty int64, price float64) *LineItem {
	t.Helper()
	item, err := NewProductItem(tb.ID, uuid.New(), "Shampoo",
		decimal.NewFromInt(qty),
		valueobject.NewMoneyBRLFromFloat(price),
		valueobject.NewMoneyBRL(decimal.Zero))
	require.NoError(t, err)
	require.NoError(t, tb.AddItem(item))
	return tb.Item(item.ID)
}

func TestNewTab(t *testing.T) {
	tenantID := uuid.New()
	opener := uuid.New()

	t.Run("creates tab with valid inputs", func(t *testing.T) {
		tab, err := NewTab(tenantID, 42, opener, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, tab)

		assert.Equal(t, tenantID, tab.TenantID)
		assert.Equal(t, 42, tab.CardNumber)
		assert.Equal(t, TabStatusOpen, tab.Status)
		assert.Equal(t, opener, tab.OpenedBy)
		assert.Nil(t, tab.ClientID)
		assert.True(t, tab.Net.IsZero())
		assert.NotEmpty(t, tab.ID)
	})

	t.Run("rejects card number below range", func(t *testing.T) {
		_, err := NewTab(tenantID, 0, opener, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 1 and 999")
	})

	t.Run("rejects card number above range", func(t *testing.T) {
		_, err := NewTab(tenantID, 1000, opener, nil, nil)
		require.Error(t, err)
	})

	t.Run("rejects empty opener", func(t *testing.T) {
		_, err := NewTab(tenantID, 1, uuid.Nil, nil, nil)
		require.Error(t, err)
	})
}

func TestTabAddItem(t *testing.T) {
	t.Run("first item moves OPEN to IN_SERVICE", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 100.00, 0)
		assert.Equal(t, TabStatusInService, tab.Status)
	})

	t.Run("rejects item without linked client", func(t *testing.T) {
		tab, err := NewTab(uuid.New(), 7, uuid.New(), nil, nil)
		require.NoError(t, err)
		item, err := NewServiceItem(tab.ID, uuid.New(), nil, "Haircut",
			decimal.NewFromInt(1), valueobject.NewMoneyBRLFromFloat(100), valueobject.NewMoneyBRL(decimal.Zero))
		require.NoError(t, err)
		err = tab.AddItem(item)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "linked client")
	})

	t.Run("rejects item on canceled tab", func(t *testing.T) {
		tab := newTestTab(t)
		require.NoError(t, tab.Cancel(uuid.New(), "client left"))
		item, err := NewServiceItem(tab.ID, uuid.New(), nil, "Haircut",
			decimal.NewFromInt(1), valueobject.NewMoneyBRLFromFloat(100), valueobject.NewMoneyBRL(decimal.Zero))
		require.NoError(t, err)
		require.Error(t, tab.AddItem(item))
	})
}

func TestTabTotals(t *testing.T) {
	t.Run("net equals gross minus discounts after every mutation", func(t *testing.T) {
		tab := newTestTab(t)
		svc := addServiceItem(t, tab, 100.00, 5.00)
		addProductItem(t, tab, 2, 15.00)

		assert.True(t, tab.Gross.Equal(decimal.NewFromFloat(130.00)), "gross = %s", tab.Gross)
		assert.True(t, tab.ItemDiscounts.Equal(decimal.NewFromFloat(5.00)))
		assert.True(t, tab.Net.Equal(decimal.NewFromFloat(125.00)))

		require.NoError(t, tab.ApplyManualDiscount(valueobject.NewMoneyBRLFromFloat(10.00)))
		assert.True(t, tab.TotalDiscounts.Equal(decimal.NewFromFloat(15.00)))
		assert.True(t, tab.Net.Equal(decimal.NewFromFloat(115.00)))

		_, err := tab.CancelItem(svc.ID, uuid.New(), "wrong service")
		require.NoError(t, err)
		assert.True(t, tab.Gross.Equal(decimal.NewFromFloat(30.00)))
		assert.True(t, tab.ItemDiscounts.IsZero())
		assert.True(t, tab.TotalDiscounts.Equal(decimal.NewFromFloat(10.00)))
		assert.True(t, tab.Net.Equal(decimal.NewFromFloat(20.00)))
	})

	t.Run("package-settled item contributes zero", func(t *testing.T) {
		tab := newTestTab(t)
		item := addServiceItem(t, tab, 80.00, 0)
		require.NoError(t, item.SettleWithPackage(uuid.New()))
		tab.recalculateTotals()
		assert.True(t, tab.Gross.IsZero())
		assert.True(t, tab.Net.IsZero())
	})

	t.Run("quantity update recomputes and returns delta", func(t *testing.T) {
		tab := newTestTab(t)
		item := addProductItem(t, tab, 2, 15.00)
		delta, err := tab.UpdateItemQuantity(item.ID, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromInt(3)))
		assert.True(t, tab.Net.Equal(decimal.NewFromFloat(75.00)))
	})

	t.Run("rejects manual discount exceeding gross", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 50.00, 0)
		err := tab.ApplyManualDiscount(valueobject.NewMoneyBRLFromFloat(60.00))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceed")
	})
}

func TestTabSettlement(t *testing.T) {
	cent := decimal.NewFromFloat(0.01)

	payTab := func(t *testing.T, tab *Tab, amount float64) {
		t.Helper()
		p, err := NewPayment(tab.ID, "cash", nil, nil,
			valueobject.NewMoneyBRLFromFloat(amount), nil, uuid.New())
		require.NoError(t, err)
		require.NoError(t, tab.AddPayment(p))
	}

	t.Run("close requires full payment", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 90.00, 0)
		require.NoError(t, tab.CloseService(uuid.New()))

		err := tab.Close(uuid.New(), cent)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not cover")

		payTab(t, tab, 90.00)
		require.NoError(t, tab.Close(uuid.New(), cent))
		assert.Equal(t, TabStatusClosed, tab.Status)
		assert.NotNil(t, tab.CashierClosedAt)
	})

	t.Run("one cent underpayment falls within tolerance", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 90.00, 0)
		require.NoError(t, tab.CloseService(uuid.New()))
		payTab(t, tab, 89.99)
		assert.True(t, tab.IsFullyPaid(cent))
		require.NoError(t, tab.Close(uuid.New(), cent))
	})

	t.Run("fee reduces paid amount", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 100.00, 0)
		rule := &FeeRule{Mode: FeeModePercent, Value: decimal.NewFromInt(3)}
		p, err := NewPayment(tab.ID, "credit", nil, nil,
			valueobject.NewMoneyBRLFromFloat(100.00), rule, uuid.New())
		require.NoError(t, err)
		require.NoError(t, tab.AddPayment(p))
		assert.True(t, tab.TotalPaid().Equal(decimal.NewFromFloat(97.00)))
		assert.False(t, tab.IsFullyPaid(cent))
	})

	t.Run("close on already closed tab fails", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 90.00, 0)
		require.NoError(t, tab.CloseService(uuid.New()))
		payTab(t, tab, 90.00)
		require.NoError(t, tab.Close(uuid.New(), cent))
		require.Error(t, tab.Close(uuid.New(), cent))
	})

	t.Run("payment on terminal tab fails", func(t *testing.T) {
		tab := newTestTab(t)
		require.NoError(t, tab.Cancel(uuid.New(), "client left"))
		p, err := NewPayment(tab.ID, "cash", nil, nil,
			valueobject.NewMoneyBRLFromFloat(10.00), nil, uuid.New())
		require.NoError(t, err)
		require.Error(t, tab.AddPayment(p))
	})
}

func TestTabCancel(t *testing.T) {
	t.Run("cancels from any non-terminal state", func(t *testing.T) {
		for _, status := range []TabStatus{TabStatusOpen, TabStatusInService, TabStatusWaitingPayment} {
			tab := newTestTab(t)
			tab.Status = status
			require.NoError(t, tab.Cancel(uuid.New(), "client left"), "from %s", status)
			assert.Equal(t, TabStatusCanceled, tab.Status)
			assert.NotNil(t, tab.CanceledAt)
		}
	})

	t.Run("cannot cancel a closed tab", func(t *testing.T) {
		tab := newTestTab(t)
		tab.Status = TabStatusClosed
		require.Error(t, tab.Cancel(uuid.New(), "too late"))
	})

	t.Run("requires a reason", func(t *testing.T) {
		tab := newTestTab(t)
		require.Error(t, tab.Cancel(uuid.New(), ""))
	})
}

func TestTabReopen(t *testing.T) {
	closedTab := func(t *testing.T) *Tab {
		t.Helper()
		tab := newTestTab(t)
		addServiceItem(t, tab, 90.00, 0)
		require.NoError(t, tab.CloseService(uuid.New()))
		p, err := NewPayment(tab.ID, "cash", nil, nil,
			valueobject.NewMoneyBRLFromFloat(90.00), nil, uuid.New())
		require.NoError(t, err)
		require.NoError(t, tab.AddPayment(p))
		require.NoError(t, tab.Close(uuid.New(), decimal.NewFromFloat(0.01)))
		return tab
	}
	manager := shared.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: shared.RoleManager}

	t.Run("elevated role with valid reason reopens", func(t *testing.T) {
		tab := closedTab(t)
		require.NoError(t, tab.Reopen(manager, "wrong payment method", 10))
		assert.Equal(t, TabStatusWaitingPayment, tab.Status)
		assert.Nil(t, tab.CashierClosedAt)
		assert.Nil(t, tab.CashierClosedBy)
	})

	t.Run("rejects short reason", func(t *testing.T) {
		tab := closedTab(t)
		err := tab.Reopen(manager, "oops", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 10 characters")
	})

	t.Run("rejects non-elevated role", func(t *testing.T) {
		tab := closedTab(t)
		cashier := shared.Actor{ID: uuid.New(), Role: shared.RoleCashier}
		err := tab.Reopen(cashier, "wrong payment method", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "elevated role")
	})

	t.Run("only CLOSED tabs reopen", func(t *testing.T) {
		tab := newTestTab(t)
		require.Error(t, tab.Reopen(manager, "wrong payment method", 10))
	})
}

func TestTabClientAndNotes(t *testing.T) {
	t.Run("unlink rejected with active items", func(t *testing.T) {
		tab := newTestTab(t)
		addServiceItem(t, tab, 50.00, 0)
		err := tab.UnlinkClient()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "active items")
	})

	t.Run("unlink allowed once items are canceled", func(t *testing.T) {
		tab := newTestTab(t)
		item := addServiceItem(t, tab, 50.00, 0)
		_, err := tab.CancelItem(item.ID, uuid.New(), "wrong service")
		require.NoError(t, err)
		require.NoError(t, tab.UnlinkClient())
		assert.Nil(t, tab.ClientID)
	})

	t.Run("notes accumulate on separate lines", func(t *testing.T) {
		tab := newTestTab(t)
		require.NoError(t, tab.AppendNote("client prefers scissors"))
		require.NoError(t, tab.AppendNote("allergic to product X"))
		assert.Equal(t, "client prefers scissors\nallergic to product X", tab.Notes)
	})

	t.Run("empty note rejected", func(t *testing.T) {
		tab := newTestTab(t)
		require.Error(t, tab.AppendNote("   "))
	})
}

func TestTabStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TabStatus
		to      TabStatus
		allowed bool
	}{
		{TabStatusOpen, TabStatusInService, true},
		{TabStatusOpen, TabStatusWaitingPayment, true},
		{TabStatusOpen, TabStatusCanceled, true},
		{TabStatusOpen, TabStatusClosed, false},
		{TabStatusInService, TabStatusWaitingPayment, true},
		{TabStatusInService, TabStatusClosed, false},
		{TabStatusWaitingPayment, TabStatusClosed, true},
		{TabStatusWaitingPayment, TabStatusCanceled, true},
		{TabStatusClosed, TabStatusWaitingPayment, true},
		{TabStatusClosed, TabStatusCanceled, false},
		{TabStatusCanceled, TabStatusOpen, false},
		{TabStatusCanceled, TabStatusWaitingPayment, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
