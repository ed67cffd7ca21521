package collaborators

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormFeeRules resolves configured payment fee rules. A destination
// rule takes precedence over a method rule.
type GormFeeRules struct {
	db *gorm.DB
}

// NewGormFeeRules creates a fee rule resolver backed by the given database
func NewGormFeeRules(db *gorm.DB) *GormFeeRules {
	return &GormFeeRules{db: db}
}

// Resolve returns the applicable fee rule, or (nil, nil) when no fee
// applies to the payment.
func (f *GormFeeRules) Resolve(ctx context.Context, tenantID uuid.UUID, methodID, destinationID *uuid.UUID) (*tab.FeeRule, error) {
	if destinationID != nil {
		rule, err := f.lookup(ctx, tenantID, "destination_id", *destinationID)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return rule, nil
		}
	}
	if methodID != nil {
		return f.lookup(ctx, tenantID, "method_id", *methodID)
	}
	return nil, nil
}

func (f *GormFeeRules) lookup(ctx context.Context, tenantID uuid.UUID, column string, id uuid.UUID) (*tab.FeeRule, error) {
	var m FeeRuleModel
	err := f.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND "+column+" = ?", tenantID, true, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tab.FeeRule{Mode: tab.FeeMode(m.Mode), Value: m.Value}, nil
}

var _ tab.FeeRuleResolver = (*GormFeeRules)(nil)
