package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// Loyalty tiers by accumulated points
const (
	tierBronze = "BRONZE"
	tierSilver = "SILVER"
	tierGold   = "GOLD"
)

var tierThresholds = []struct {
	name   string
	points int
}{
	{tierGold, 5000},
	{tierSilver, 1000},
	{tierBronze, 0},
}

// GormLoyalty accrues loyalty points from settled tabs. One point is
// earned per whole currency unit actually paid.
type GormLoyalty struct {
	db *gorm.DB
}

// NewGormLoyalty creates a loyalty adapter backed by the given database
func NewGormLoyalty(db *gorm.DB) *GormLoyalty {
	return &GormLoyalty{db: db}
}

// ProcessTabPoints awards points for a settled tab and upgrades the
// client's tier when a threshold is crossed.
func (l *GormLoyalty) ProcessTabPoints(ctx context.Context, tenantID, tabID, clientID, actorID uuid.UUID) (*tab.LoyaltyResult, error) {
	var paid decimal.NullDecimal
	err := l.db.WithContext(ctx).
		Table("tab_payments").
		Select("SUM(COALESCE(net_amount, amount))").
		Where("tab_id = ?", tabID).
		Scan(&paid).Error
	if err != nil {
		return nil, err
	}
	points := 0
	if paid.Valid {
		points = int(paid.Decimal.IntPart())
	}
	if points <= 0 {
		return &tab.LoyaltyResult{}, nil
	}

	result := &tab.LoyaltyResult{PointsEarned: points}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		var account LoyaltyAccountModel
		err := tx.
			Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
			First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = LoyaltyAccountModel{
				ID:        uuid.New(),
				TenantID:  tenantID,
				ClientID:  clientID,
				Points:    points,
				Tier:      tierFor(points),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if account.Tier != tierBronze {
				result.TierUpgraded = true
				result.NewTierName = account.Tier
			}
			return tx.Create(&account).Error
		case err != nil:
			return err
		}

		total := account.Points + points
		newTier := tierFor(total)
		if newTier != account.Tier {
			result.TierUpgraded = true
			result.NewTierName = newTier
		}
		return tx.Model(&LoyaltyAccountModel{}).
			Where("id = ?", account.ID).
			Updates(map[string]any{"points": total, "tier": newTier, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func tierFor(points int) string {
	for _, t := range tierThresholds {
		if points >= t.points {
			return t.name
		}
	}
	return tierBronze
}

var _ tab.LoyaltyService = (*GormLoyalty)(nil)
