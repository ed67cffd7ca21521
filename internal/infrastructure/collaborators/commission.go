package collaborators

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormCommissions writes staff commission records at settlement
type GormCommissions struct {
	db *gorm.DB
}

// NewGormCommissions creates a commission adapter backed by the given database
func NewGormCommissions(db *gorm.DB) *GormCommissions {
	return &GormCommissions{db: db}
}

// CreateFromItem records the commission earned on one closed item.
// Re-settling the same item (after a reopen) keeps the first record.
func (c *GormCommissions) CreateFromItem(ctx context.Context, req tab.CommissionRequest) error {
	record := CommissionModel{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		TabID:       req.TabID,
		ItemID:      req.ItemID,
		PerformerID: req.PerformerID,
		Description: req.Description,
		Amount:      req.Amount,
		Percentage:  req.Percentage,
		CreatedAt:   time.Now(),
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&record).Error
}

var _ tab.CommissionService = (*GormCommissions)(nil)
