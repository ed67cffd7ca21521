package tab

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// Locker serializes mutations per tab aggregate, closing the lost-update
// window on totals recompute under concurrent item additions
type Locker interface {
	Acquire(ctx context.Context, tenantID, tabID uuid.UUID) (release func(), err error)
}

// Config carries engine tuning values injected at construction
type Config struct {
	// PaymentTolerance is the underpayment tolerated at close, in
	// currency units (one minor-unit cent by default)
	PaymentTolerance decimal.Decimal
	// ReopenMinReasonLen is the minimum length of a reopen reason
	ReopenMinReasonLen int
	// CommissionPercent is the default commission rate for performers
	CommissionPercent decimal.Decimal
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		PaymentTolerance:   decimal.NewFromFloat(0.01),
		ReopenMinReasonLen: 10,
		CommissionPercent:  decimal.NewFromInt(30),
	}
}

// Collaborators bundles the external service contracts the engine drives
type Collaborators struct {
	Inventory   tab.InventoryService
	CashDrawer  tab.CashDrawerService
	Sessions    tab.PrepaidSessionService
	Recipes     tab.RecipeResolver
	Commissions tab.CommissionService
	Loyalty     tab.LoyaltyService
	Clients     tab.ClientDirectory
	Catalog     tab.CatalogService
	Fees        tab.FeeRuleResolver
	Staff       tab.StaffDirectory
}

// Service orchestrates the tab lifecycle: state transitions, financial
// invariants and the compensating side effects across collaborators
type Service struct {
	tabs   tab.Repository
	locker Locker
	collab Collaborators
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new tab engine service
func NewService(tabs tab.Repository, locker Locker, collab Collaborators, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tabs:   tabs,
		locker: locker,
		collab: collab,
		cfg:    cfg,
		logger: logger,
	}
}

// Open opens a new tab. A caller-supplied card number must be free among
// non-terminal tabs; otherwise the lowest free number is assigned. An
// open cash-drawer session is required.
func (s *Service) Open(ctx context.Context, actor shared.Actor, req OpenTabRequest) (*TabResponse, error) {
	session, err := s.collab.CashDrawer.CurrentOpenSession(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check cash-drawer session: %w", err)
	}
	if session == nil {
		return nil, shared.NewDomainError("NO_OPEN_SESSION", "An open cash-drawer session is required to open a tab")
	}

	var cardNumber int
	if req.CardNumber != nil {
		if err := tab.ValidateCardNumber(*req.CardNumber); err != nil {
			return nil, err
		}
		existing, err := s.tabs.FindActiveByCardNumber(ctx, actor.TenantID, *req.CardNumber)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, shared.NewDomainError("CARD_IN_USE",
				fmt.Sprintf("Card number %d is already held by an open tab", *req.CardNumber))
		}
		cardNumber = *req.CardNumber
	} else {
		number, err := s.assignCardNumber(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}
		cardNumber = number
	}

	t, err := tab.NewTab(actor.TenantID, cardNumber, actor.ID, req.ClientID, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if req.Note != "" {
		if err := t.AppendNote(req.Note); err != nil {
			return nil, err
		}
	}

	if err := s.tabs.Save(ctx, t); err != nil {
		return nil, err
	}

	s.audit(ctx, t, actor, tab.EventTabOpened, tab.Metadata{
		"card_number": cardNumber,
		"client_id":   req.ClientID,
	})

	response := ToTabResponse(t)
	return &response, nil
}

// assignCardNumber returns the lowest unused card number, scanning
// ascending through [MinCardNumber, MaxCardNumber]
func (s *Service) assignCardNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	used, err := s.tabs.UsedCardNumbers(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	inUse := make(map[int]bool, len(used))
	for _, n := range used {
		inUse[n] = true
	}
	for n := tab.MinCardNumber; n <= tab.MaxCardNumber; n++ {
		if !inUse[n] {
			return n, nil
		}
	}
	return 0, shared.NewDomainError("NO_FREE_CARD", "All card numbers are in use")
}

// QuickAccess finds the open tab at a card number or creates one. Creating
// requires an open cash-drawer session; returning an existing tab does not.
func (s *Service) QuickAccess(ctx context.Context, actor shared.Actor, req QuickAccessRequest) (*QuickAccessResult, error) {
	if err := tab.ValidateCardNumber(req.CardNumber); err != nil {
		return nil, err
	}

	existing, err := s.tabs.FindActiveByCardNumber(ctx, actor.TenantID, req.CardNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return &QuickAccessResult{Tab: ToTabResponse(existing), Created: false}, nil
	}

	var previousStatus *string
	if previous, err := s.tabs.FindLatestByCardNumber(ctx, actor.TenantID, req.CardNumber); err == nil && previous != nil {
		status := previous.Status.String()
		previousStatus = &status
	}

	number := req.CardNumber
	response, err := s.Open(ctx, actor, OpenTabRequest{CardNumber: &number})
	if err != nil {
		return nil, err
	}
	return &QuickAccessResult{Tab: *response, Created: true, PreviousStatus: previousStatus}, nil
}

// LinkClient attaches a client to the tab
func (s *Service) LinkClient(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req LinkClientRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if err := t.LinkClient(req.ClientID); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}
		s.audit(ctx, t, actor, tab.EventClientLinked, tab.Metadata{"client_id": req.ClientID})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// UnlinkClient detaches the client from the tab
func (s *Service) UnlinkClient(ctx context.Context, actor shared.Actor, tabID uuid.UUID) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		previous := t.ClientID
		if err := t.UnlinkClient(); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}
		s.audit(ctx, t, actor, tab.EventClientUnlinked, tab.Metadata{"previous_client_id": previous})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// AddNote appends a note to the tab
func (s *Service) AddNote(ctx context.Context, actor shared.Actor, tabID uuid.UUID, req AddNoteRequest) (*TabResponse, error) {
	var response *TabResponse
	err := s.withTab(ctx, actor, tabID, func(t *tab.Tab) error {
		if err := t.AppendNote(req.Note); err != nil {
			return err
		}
		if err := s.tabs.SaveWithLock(ctx, t); err != nil {
			return err
		}
		s.audit(ctx, t, actor, tab.EventNoteAdded, tab.Metadata{"note": req.Note})
		r := ToTabResponse(t)
		response = &r
		return nil
	})
	return response, err
}

// Get retrieves a tab with its items and payments
func (s *Service) Get(ctx context.Context, actor shared.Actor, tabID uuid.UUID) (*TabResponse, error) {
	t, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	response := ToTabResponse(t)
	return &response, nil
}

// GetDetails retrieves the full aggregate view: tab, items, payments and
// the audit timeline
func (s *Service) GetDetails(ctx context.Context, actor shared.Actor, tabID uuid.UUID) (*TabDetailsResponse, error) {
	t, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	events, err := s.tabs.ListEvents(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	return &TabDetailsResponse{
		TabResponse: ToTabResponse(t),
		Events:      ToTabEventResponses(events),
	}, nil
}

// List retrieves tabs with filtering and pagination
func (s *Service) List(ctx context.Context, actor shared.Actor, filter ListFilter) ([]TabResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}

	tabs, err := s.tabs.FindAllForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tabs.CountForTenant(ctx, actor.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TabResponse, len(tabs))
	for idx := range tabs {
		responses[idx] = ToTabResponse(&tabs[idx])
	}
	return responses, total, nil
}

// ListItems returns the line items of a tab
func (s *Service) ListItems(ctx context.Context, actor shared.Actor, tabID uuid.UUID) ([]LineItemResponse, error) {
	t, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	items := make([]LineItemResponse, len(t.Items))
	for idx := range t.Items {
		items[idx] = ToLineItemResponse(&t.Items[idx])
	}
	return items, nil
}

// ListPayments returns the payments of a tab
func (s *Service) ListPayments(ctx context.Context, actor shared.Actor, tabID uuid.UUID) ([]PaymentResponse, error) {
	t, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	payments := make([]PaymentResponse, len(t.Payments))
	for idx := range t.Payments {
		payments[idx] = ToPaymentResponse(&t.Payments[idx])
	}
	return payments, nil
}

// ListEvents returns the audit timeline of a tab
func (s *Service) ListEvents(ctx context.Context, actor shared.Actor, tabID uuid.UUID) ([]TabEventResponse, error) {
	if _, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID); err != nil {
		return nil, err
	}
	events, err := s.tabs.ListEvents(ctx, actor.TenantID, tabID)
	if err != nil {
		return nil, err
	}
	return ToTabEventResponses(events), nil
}

// withTab serializes a mutation on one tab: acquire the per-tab lock,
// load the aggregate, run the mutation
func (s *Service) withTab(ctx context.Context, actor shared.Actor, tabID uuid.UUID, fn func(t *tab.Tab) error) error {
	release, err := s.locker.Acquire(ctx, actor.TenantID, tabID)
	if err != nil {
		return fmt.Errorf("failed to acquire tab lock: %w", err)
	}
	defer release()

	t, err := s.tabs.FindByIDForTenant(ctx, actor.TenantID, tabID)
	if err != nil {
		return err
	}
	return fn(t)
}

// audit appends an audit event. Audit failures are logged and swallowed:
// they never fail the operation that produced them.
func (s *Service) audit(ctx context.Context, t *tab.Tab, actor shared.Actor, eventType string, metadata tab.Metadata) {
	event, err := tab.NewTabEvent(t.TenantID, t.ID, actor.ID, eventType, metadata)
	if err != nil {
		s.logger.Warn("failed to build audit event",
			zap.String("tab_id", t.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}
	if err := s.tabs.AppendEvent(ctx, event); err != nil {
		s.logger.Warn("failed to append audit event",
			zap.String("tab_id", t.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
