package tab

import (
	"context"

	"github.com/google/uuid"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// Repository defines persistence for the Tab aggregate and its owned
// records. Snapshots and audit events live outside the aggregate save so
// they stay append-only.
type Repository interface {
	// FindByIDForTenant loads a tab with its items and payments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Tab, error)

	// FindActiveByCardNumber finds the non-terminal tab holding a card
	// number, or shared.ErrNotFound
	FindActiveByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*Tab, error)

	// FindLatestByCardNumber finds the most recent tab (any status) that
	// held a card number, or shared.ErrNotFound
	FindLatestByCardNumber(ctx context.Context, tenantID uuid.UUID, cardNumber int) (*Tab, error)

	// UsedCardNumbers returns the card numbers held by non-terminal tabs
	UsedCardNumbers(ctx context.Context, tenantID uuid.UUID) ([]int, error)

	// FindAllForTenant lists tabs with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Tab, error)

	// CountForTenant counts tabs matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a tab with its items and payments
	Save(ctx context.Context, t *Tab) error

	// SaveWithLock saves with an optimistic version check; returns
	// shared.ErrConcurrencyConflict when the version moved
	SaveWithLock(ctx context.Context, t *Tab) error

	// AppendEvent appends an audit event (append-only)
	AppendEvent(ctx context.Context, event *TabEvent) error

	// ListEvents returns the audit events for a tab, oldest first
	ListEvents(ctx context.Context, tenantID, tabID uuid.UUID) ([]TabEvent, error)

	// SnapshotExists reports whether a consumption snapshot exists for the
	// (tab, item) pair
	SnapshotExists(ctx context.Context, tabID, itemID uuid.UUID) (bool, error)

	// SaveSnapshot persists a consumption snapshot (at most one per pair)
	SaveSnapshot(ctx context.Context, snapshot *ConsumptionSnapshot) error

	// FindSnapshotsByTab returns all consumption snapshots for a tab
	FindSnapshotsByTab(ctx context.Context, tabID uuid.UUID) ([]ConsumptionSnapshot, error)
}
