package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormCashDrawer reads drawer sessions and records settlement entries
type GormCashDrawer struct {
	db *gorm.DB
}

// NewGormCashDrawer creates a cash drawer adapter backed by the given database
func NewGormCashDrawer(db *gorm.DB) *GormCashDrawer {
	return &GormCashDrawer{db: db}
}

// CurrentOpenSession returns the tenant's open drawer session, or
// (nil, nil) when none is open.
func (d *GormCashDrawer) CurrentOpenSession(ctx context.Context, tenantID uuid.UUID) (*tab.DrawerSession, error) {
	var m DrawerSessionModel
	err := d.db.WithContext(ctx).
		Where("tenant_id = ? AND closed_at IS NULL", tenantID).
		Order("opened_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tab.DrawerSession{
		ID:       m.ID,
		TenantID: m.TenantID,
		OpenedAt: m.OpenedAt,
	}, nil
}

// RecordSettlement appends a settlement entry to the open session
func (d *GormCashDrawer) RecordSettlement(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) error {
	session, err := d.CurrentOpenSession(ctx, tenantID)
	if err != nil {
		return err
	}
	if session == nil {
		return shared.NewDomainError("NO_OPEN_SESSION", "No cash drawer session is open")
	}
	entry := DrawerTransactionModel{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SessionID: session.ID,
		Method:    method,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	return d.db.WithContext(ctx).Create(&entry).Error
}

var _ tab.CashDrawerService = (*GormCashDrawer)(nil)
