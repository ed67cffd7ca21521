package tab

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// Audit event type tags. Stable identifiers: operators and tooling key off
// these, so they are never renamed.
const (
	EventTabOpened        = "tab.opened"
	EventTabReopened      = "tab.reopened"
	EventTabServiceClosed = "tab.service_closed"
	EventTabClosed        = "tab.closed"
	EventTabCanceled      = "tab.canceled"
	EventItemAdded        = "item.added"
	EventItemUpdated      = "item.updated"
	EventItemCanceled     = "item.canceled"
	EventDiscountApplied  = "discount.applied"
	EventPaymentRecorded  = "payment.recorded"
	EventRecipeConsumed   = "recipe.consumed"
	EventClientLinked     = "client.linked"
	EventClientUnlinked   = "client.unlinked"
	EventNoteAdded        = "note.added"
)

// Metadata is the structured payload attached to an audit event,
// stored as a JSON column
type Metadata map[string]any

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
	return json.Unmarshal(data, m)
}

// TabEvent is an append-only audit record scoped to one tab. Events are
// never edited or deleted; together they are the canonical timeline of
// everything that happened to the tab.
type TabEvent struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	TabID     uuid.UUID
	ActorID   uuid.UUID
	Type      string
	Metadata  Metadata
	CreatedAt time.Time
}

// NewTabEvent creates a new audit event
func NewTabEvent(tenantID, tabID, actorID uuid.UUID, eventType string, metadata Metadata) (*TabEvent, error) {
	if eventType == "" {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Event type cannot be empty")
	}
	if metadata == nil {
		metadata = Metadata{}
	}
	return &TabEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		TabID:     tabID,
		ActorID:   actorID,
		Type:      eventType,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}, nil
}
