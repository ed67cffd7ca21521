package collaborators

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonsuite/backend/internal/domain/shared"
	"github.com/salonsuite/backend/internal/domain/tab"
)

// GormCatalog resolves products and services from the catalog tables
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog adapter backed by the given database
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// GetProduct returns the catalog's view of a product
func (c *GormCatalog) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*tab.ProductInfo, error) {
	var m ProductModel
	err := c.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product not found")
		}
		return nil, err
	}
	return &tab.ProductInfo{
		ID:          m.ID,
		Name:        m.Name,
		Sellable:    m.Sellable,
		IsKit:       m.IsKit,
		RetailPrice: m.RetailPrice,
	}, nil
}

// GetService returns the catalog's view of a service
func (c *GormCatalog) GetService(ctx context.Context, tenantID, serviceID uuid.UUID) (*tab.ServiceInfo, error) {
	var m ServiceModel
	err := c.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", serviceID, tenantID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("INVALID_SERVICE", "Service not found")
		}
		return nil, err
	}
	return &tab.ServiceInfo{
		ID:        m.ID,
		Name:      m.Name,
		BasePrice: m.BasePrice,
	}, nil
}

var _ tab.CatalogService = (*GormCatalog)(nil)
