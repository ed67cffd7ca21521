package tab

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// MockTabRepository is a mock implementation of tab.Repository
type MockTabRepository struct {
	mock.Mock
}

func (m *MockTabRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*tab.Tab, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.Tab), args.Error(1)
}

func (m *MockTabRepository) FindActiveByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*tab.Tab, error) {
	args := m.Called(ctx, tenantID, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.Tab), args.Error(1)
}

func (m *MockTabRepository) FindLatestByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*tab.Tab, error) {
	args := m.Called(ctx, tenantID, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.Tab), args.Error(1)
}

func (m *MockTabRepository) UsedCardNumbers(ctx context.Context, tenantID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockTabRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]tab.Tab, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tab.Tab), args.Error(1)
}

func (m *MockTabRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTabRepository) Save(ctx context.Context, t *tab.Tab) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTabRepository) SaveWithLock(ctx context.Context, t *tab.Tab) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTabRepository) AppendEvent(ctx context.Context, event *tab.TabEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTabRepository) ListEvents(ctx context.Context, tenantID, tabID uuid.UUID) ([]tab.TabEvent, error) {
	args := m.Called(ctx, tenantID, tabID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tab.TabEvent), args.Error(1)
}

func (m *MockTabRepository) SnapshotExists(ctx context.Context, tabID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tabID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTabRepository) SaveSnapshot(ctx context.Context, snapshot *tab.ConsumptionSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockTabRepository) FindSnapshotsByTab(ctx context.Context, tabID uuid.UUID) ([]tab.ConsumptionSnapshot, error) {
	args := m.Called(ctx, tabID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tab.ConsumptionSnapshot), args.Error(1)
}

// MockInventoryService is a mock implementation of tab.InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Adjust(ctx context.Context, adj tab.StockAdjustment) (*tab.StockMovement, error) {
	args := m.Called(ctx, adj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.StockMovement), args.Error(1)
}

func (m *MockInventoryService) DeductKit(ctx context.Context, deduction tab.KitDeduction) (uuid.UUID, error) {
	args := m.Called(ctx, deduction)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockInventoryService) ReverseKit(ctx context.Context, groupID, actorID uuid.UUID, reason string, referenceID uuid.UUID) error {
	args := m.Called(ctx, groupID, actorID, reason, referenceID)
	return args.Error(0)
}

// MockCashDrawerService is a mock implementation of tab.CashDrawerService
type MockCashDrawerService struct {
	mock.Mock
}

func (m *MockCashDrawerService) CurrentOpenSession(ctx context.Context, tenantID uuid.UUID) (*tab.DrawerSession, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.DrawerSession), args.Error(1)
}

func (m *MockCashDrawerService) RecordSettlement(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) error {
	args := m.Called(ctx, tenantID, method, amount)
	return args.Error(0)
}

// MockPrepaidSessionService is a mock implementation of tab.PrepaidSessionService
type MockPrepaidSessionService struct {
	mock.Mock
}

func (m *MockPrepaidSessionService) CheckAvailable(ctx context.Context, clientID, serviceID uuid.UUID) (*tab.PackageBalance, error) {
	args := m.Called(ctx, clientID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.PackageBalance), args.Error(1)
}

func (m *MockPrepaidSessionService) Consume(ctx context.Context, consumption tab.SessionConsumption) (*tab.SessionUsage, error) {
	args := m.Called(ctx, consumption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.SessionUsage), args.Error(1)
}

func (m *MockPrepaidSessionService) Revert(ctx context.Context, usageID uuid.UUID, note string) (int, error) {
	args := m.Called(ctx, usageID, note)
	return args.Int(0), args.Error(1)
}

// MockRecipeResolver is a mock implementation of tab.RecipeResolver
type MockRecipeResolver struct {
	mock.Mock
}

func (m *MockRecipeResolver) GetActive(ctx context.Context, serviceID, tenantID uuid.UUID) (*tab.Recipe, error) {
	args := m.Called(ctx, serviceID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.Recipe), args.Error(1)
}

// MockCommissionService is a mock implementation of tab.CommissionService
type MockCommissionService struct {
	mock.Mock
}

func (m *MockCommissionService) CreateFromItem(ctx context.Context, req tab.CommissionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockLoyaltyService is a mock implementation of tab.LoyaltyService
type MockLoyaltyService struct {
	mock.Mock
}

func (m *MockLoyaltyService) ProcessTabPoints(ctx context.Context, tenantID, tabID, clientID, actorID uuid.UUID) (*tab.LoyaltyResult, error) {
	args := m.Called(ctx, tenantID, tabID, clientID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.LoyaltyResult), args.Error(1)
}

// MockClientDirectory is a mock implementation of tab.ClientDirectory
type MockClientDirectory struct {
	mock.Mock
}

func (m *MockClientDirectory) UpdateLastVisit(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

// MockCatalogService is a mock implementation of tab.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*tab.ProductInfo, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.ProductInfo), args.Error(1)
}

func (m *MockCatalogService) GetService(ctx context.Context, tenantID, serviceID uuid.UUID) (*tab.ServiceInfo, error) {
	args := m.Called(ctx, tenantID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.ServiceInfo), args.Error(1)
}

// MockFeeRuleResolver is a mock implementation of tab.FeeRuleResolver
type MockFeeRuleResolver struct {
	mock.Mock
}

func (m *MockFeeRuleResolver) Resolve(ctx context.Context, tenantID uuid.UUID, methodID, destinationID *uuid.UUID) (*tab.FeeRule, error) {
	args := m.Called(ctx, tenantID, methodID, destinationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tab.FeeRule), args.Error(1)
}

// MockStaffDirectory is a mock implementation of tab.StaffDirectory
type MockStaffDirectory struct {
	mock.Mock
}

func (m *MockStaffDirectory) GetRole(ctx context.Context, tenantID, userID uuid.UUID) (shared.Role, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).(shared.Role), args.Error(1)
}

func (m *MockStaffDirectory) GetAppointmentPerformer(ctx context.Context, tenantID, appointmentID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, tenantID, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

// noopLocker satisfies Locker without locking; unit tests are single
// threaded
type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, tenantID, tabID uuid.UUID) (func(), error) {
	return func() {}, nil
}

// engineFixture wires a Service against a full mock set
type engineFixture struct {
	repo        *MockTabRepository
	inventory   *MockInventoryService
	cashDrawer  *MockCashDrawerService
	sessions    *MockPrepaidSessionService
	recipes     *MockRecipeResolver
	commissions *MockCommissionService
	loyalty     *MockLoyaltyService
	clients     *MockClientDirectory
	catalog     *MockCatalogService
	fees        *MockFeeRuleResolver
	staff       *MockStaffDirectory
	svc         *Service
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		repo:        new(MockTabRepository),
		inventory:   new(MockInventoryService),
		cashDrawer:  new(MockCashDrawerService),
		sessions:    new(MockPrepaidSessionService),
		recipes:     new(MockRecipeResolver),
		commissions: new(MockCommissionService),
		loyalty:     new(MockLoyaltyService),
		clients:     new(MockClientDirectory),
		catalog:     new(MockCatalogService),
		fees:        new(MockFeeRuleResolver),
		staff:       new(MockStaffDirectory),
	}
	f.svc = NewService(f.repo, noopLocker{}, Collaborators{
		Inventory:   f.inventory,
		CashDrawer:  f.cashDrawer,
		Sessions:    f.sessions,
		Recipes:     f.recipes,
		Commissions: f.commissions,
		Loyalty:     f.loyalty,
		Clients:     f.clients,
		Catalog:     f.catalog,
		Fees:        f.fees,
		Staff:       f.staff,
	}, DefaultConfig(), nil)

	// Audit events are best-effort everywhere; accept them by default.
	f.repo.On("AppendEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}
