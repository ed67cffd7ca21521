package collaborators

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormRecipeResolver loads the active bill of materials for a service
type GormRecipeResolver struct {
	db *gorm.DB
}

// NewGormRecipeResolver creates a recipe resolver backed by the given database
func NewGormRecipeResolver(db *gorm.DB) *GormRecipeResolver {
	return &GormRecipeResolver{db: db}
}

// GetActive returns the highest active recipe version for the service,
// or (nil, nil) when the service has no recipe.
func (r *GormRecipeResolver) GetActive(ctx context.Context, serviceID, tenantID uuid.UUID) (*tab.Recipe, error) {
	var m RecipeModel
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND tenant_id = ? AND active = ?", serviceID, tenantID, true).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	recipe := &tab.Recipe{
		ID:       m.ID,
		Version:  m.Version,
		Lines:    make([]tab.RecipeLine, 0, len(m.Lines)),
		Variants: make([]tab.RecipeVariant, 0, len(m.Variants)),
	}
	for _, line := range m.Lines {
		recipe.Lines = append(recipe.Lines, tab.RecipeLine{
			ProductID:  line.ProductID,
			Standard:   line.Standard,
			Buffer:     line.Buffer,
			UnitCost:   line.UnitCost,
			Continuous: line.Continuous,
		})
	}
	for _, variant := range m.Variants {
		recipe.Variants = append(recipe.Variants, tab.RecipeVariant{
			ID:         variant.ID,
			Multiplier: variant.Multiplier,
			Default:    variant.Default,
		})
	}
	return recipe, nil
}

var _ tab.RecipeResolver = (*GormRecipeResolver)(nil)
