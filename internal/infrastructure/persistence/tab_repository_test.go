package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/shared/valueobject"
	"github.com/salonsuite/backend/internal/domain/tab"
	"github.com/salonsuite/backend/internal/infrastructure/persistence/models"
)

func setupTabTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.TabModel{},
		&models.LineItemModel{},
		&models.PaymentModel{},
		&models.TabEventModel{},
		&models.ConsumptionSnapshotModel{},
	)
	require.NoError(t, err)

	return db
}

func newPersistedTab(t *testing.T, repo *GormTabRepository, tenantID uuid.UUID, cardNumber int) *tab.Tab {
	t.Helper()
	clientID := uuid.New()
	aggregate, err := tab.NewTab(tenantID, cardNumber, uuid.New(), &clientID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), aggregate))
	return aggregate
}

func TestGormTabRepository_SaveAndFind(t *testing.T) {
	db := setupTabTestDB(t)
	repo := NewGormTabRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("round trips a tab with items and payments", func(t *testing.T) {
		aggregate := newPersistedTab(t, repo, tenantID, 7)

		price := valueobject.NewMoneyBRLFromFloat(80)
		item, err := tab.NewServiceItem(aggregate.ID, uuid.New(), nil, "Corte feminino", decimal.NewFromInt(1), price, valueobject.ZeroBRL())
		require.NoError(t, err)
		require.NoError(t, aggregate.AddItem(item))

		paid := valueobject.NewMoneyBRLFromFloat(80)
		payment, err := tab.NewPayment(aggregate.ID, "cash", nil, nil, paid, nil, uuid.New())
		require.NoError(t, err)
		require.NoError(t, aggregate.AddPayment(payment))
		require.NoError(t, repo.Save(ctx, aggregate))

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, aggregate.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, loaded.CardNumber)
		assert.Equal(t, tab.TabStatusInService, loaded.Status)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, "Corte feminino", loaded.Items[0].Description)
		require.Len(t, loaded.Payments, 1)
		assert.True(t, loaded.Net.Equal(decimal.NewFromInt(80)))
		assert.True(t, loaded.TotalPaid().Equal(decimal.NewFromInt(80)))
	})

	t.Run("returns not found for other tenant", func(t *testing.T) {
		aggregate := newPersistedTab(t, repo, tenantID, 8)

		_, err := repo.FindByIDForTenant(ctx, uuid.New(), aggregate.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormTabRepository_CardNumbers(t *testing.T) {
	db := setupTabTestDB(t)
	repo := NewGormTabRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("active lookup skips terminal tabs", func(t *testing.T) {
		canceled := newPersistedTab(t, repo, tenantID, 5)
		require.NoError(t, canceled.Cancel(uuid.New(), "client left"))
		require.NoError(t, repo.Save(ctx, canceled))

		_, err := repo.FindActiveByCardNumber(ctx, tenantID, 5)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		active := newPersistedTab(t, repo, tenantID, 5)
		found, err := repo.FindActiveByCardNumber(ctx, tenantID, 5)
		require.NoError(t, err)
		assert.Equal(t, active.ID, found.ID)
	})

	t.Run("latest lookup returns the newest holder", func(t *testing.T) {
		first := newPersistedTab(t, repo, tenantID, 9)
		require.NoError(t, first.Cancel(uuid.New(), "client left"))
		require.NoError(t, repo.Save(ctx, first))

		second := newPersistedTab(t, repo, tenantID, 9)
		second.CreatedAt = second.CreatedAt.Add(time.Second)
		require.NoError(t, repo.Save(ctx, second))

		found, err := repo.FindLatestByCardNumber(ctx, tenantID, 9)
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
	})

	t.Run("used card numbers covers non-terminal tabs only", func(t *testing.T) {
		otherTenant := uuid.New()
		newPersistedTab(t, repo, otherTenant, 1)
		closedOut := newPersistedTab(t, repo, otherTenant, 2)
		require.NoError(t, closedOut.Cancel(uuid.New(), "no show"))
		require.NoError(t, repo.Save(ctx, closedOut))
		newPersistedTab(t, repo, otherTenant, 4)

		numbers, err := repo.UsedCardNumbers(ctx, otherTenant)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 4}, numbers)
	})
}

func TestGormTabRepository_SaveWithLock(t *testing.T) {
	db := setupTabTestDB(t)
	repo := NewGormTabRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("saves and bumps the version", func(t *testing.T) {
		aggregate := newPersistedTab(t, repo, tenantID, 3)
		require.Equal(t, 1, aggregate.Version)

		require.NoError(t, aggregate.AppendNote("cliente pediu troca de horario"))
		require.NoError(t, repo.SaveWithLock(ctx, aggregate))
		assert.Equal(t, 2, aggregate.Version)

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, aggregate.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Version)
		assert.Contains(t, loaded.Notes, "troca de horario")
	})

	t.Run("reports not found for a vanished tab", func(t *testing.T) {
		clientID := uuid.New()
		aggregate, err := tab.NewTab(tenantID, 11, uuid.New(), &clientID, nil)
		require.NoError(t, err)

		err = repo.SaveWithLock(ctx, aggregate)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NotErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		aggregate := newPersistedTab(t, repo, tenantID, 6)

		stale, err := repo.FindByIDForTenant(ctx, tenantID, aggregate.ID)
		require.NoError(t, err)

		require.NoError(t, repo.SaveWithLock(ctx, aggregate))

		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormTabRepository_Events(t *testing.T) {
	db := setupTabTestDB(t)
	repo := NewGormTabRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	tabID := uuid.New()
	actorID := uuid.New()

	opened, err := tab.NewTabEvent(tenantID, tabID, actorID, tab.EventTabOpened, tab.Metadata{"card_number": 3})
	require.NoError(t, err)
	require.NoError(t, repo.AppendEvent(ctx, opened))

	closed, err := tab.NewTabEvent(tenantID, tabID, actorID, tab.EventTabClosed, nil)
	require.NoError(t, err)
	closed.CreatedAt = opened.CreatedAt.Add(time.Second)
	require.NoError(t, repo.AppendEvent(ctx, closed))

	events, err := repo.ListEvents(ctx, tenantID, tabID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, tab.EventTabOpened, events[0].Type)
	assert.Equal(t, tab.EventTabClosed, events[1].Type)
	assert.EqualValues(t, 3, events[0].Metadata["card_number"])

	t.Run("scoped to tenant and tab", func(t *testing.T) {
		events, err := repo.ListEvents(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestGormTabRepository_Snapshots(t *testing.T) {
	db := setupTabTestDB(t)
	repo := NewGormTabRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	tabID := uuid.New()
	itemID := uuid.New()

	exists, err := repo.SnapshotExists(ctx, tabID, itemID)
	require.NoError(t, err)
	assert.False(t, exists)

	movementID := uuid.New()
	lines := tab.SnapshotLines{
		{ProductID: uuid.New(), QuantityApplied: decimal.NewFromFloat(12.5), UnitCost: decimal.NewFromFloat(0.8)},
	}
	snapshot, err := tab.NewConsumptionSnapshot(tenantID, tabID, itemID, uuid.New(), 2, nil, lines, &movementID)
	require.NoError(t, err)
	require.NoError(t, repo.SaveSnapshot(ctx, snapshot))

	exists, err = repo.SnapshotExists(ctx, tabID, itemID)
	require.NoError(t, err)
	assert.True(t, exists)

	snapshots, err := repo.FindSnapshotsByTab(ctx, tabID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].RecipeVersion)
	require.Len(t, snapshots[0].Lines, 1)
	assert.True(t, snapshots[0].Lines[0].QuantityApplied.Equal(decimal.NewFromFloat(12.5)))
	require.NotNil(t, snapshots[0].MovementID)
	assert.Equal(t, movementID, *snapshots[0].MovementID)
}

func TestPaymentModel_NullNetAmount(t *testing.T) {
	// Rows persisted before fee tracking have no net amount; they settle
	// at their gross amount when loaded.
	model := &models.PaymentModel{
		TabID:      uuid.New(),
		Method:     "cash",
		Amount:     decimal.NewFromInt(50),
		FeeAmount:  decimal.Zero,
		NetAmount:  nil,
		ReceivedBy: uuid.New(),
		ReceivedAt: time.Now(),
	}

	payment := model.ToDomain()
	assert.True(t, payment.Paid().Equal(decimal.NewFromInt(50)))
	assert.True(t, payment.NetAmount.Equal(payment.Amount))
}
