package collaborators

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Persistence models for the collaborator-owned tables the engine's
// adapters read and write. Each bounded context owns its tables; the
// adapters here provide the contract implementations used in production.

// ProductModel maps the catalog's products table
type ProductModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Sellable    bool            `gorm:"not null;default:true"`
	IsKit       bool            `gorm:"not null;default:false"`
	RetailPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// ServiceModel maps the catalog's services table
type ServiceModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(255);not null"`
	BasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for ServiceModel
func (ServiceModel) TableName() string {
	return "services"
}

// ProductStockModel maps per-location stock balances
type ProductStockModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_location"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_location"`
	Location  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_product_location"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for ProductStockModel
func (ProductStockModel) TableName() string {
	return "product_stocks"
}

// StockMovementModel maps the inventory movement ledger
type StockMovementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Location      string          `gorm:"type:varchar(20);not null"`
	MovementType  string          `gorm:"type:varchar(20);not null"`
	Reason        string          `gorm:"type:varchar(500)"`
	ReferenceType string          `gorm:"type:varchar(50)"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index"`
	GroupID       *uuid.UUID      `gorm:"type:uuid;index:idx_stock_movements_group"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for StockMovementModel
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// KitComponentModel maps a kit product to one of its components
type KitComponentModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	KitProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for KitComponentModel
func (KitComponentModel) TableName() string {
	return "kit_components"
}

// DrawerSessionModel maps cash drawer sessions
type DrawerSessionModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	OpenedAt  time.Time  `gorm:"not null"`
	ClosedAt  *time.Time `gorm:"index"`
	OpenedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for DrawerSessionModel
func (DrawerSessionModel) TableName() string {
	return "cash_drawer_sessions"
}

// DrawerTransactionModel maps settlement entries recorded against a session
type DrawerTransactionModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    string          `gorm:"type:varchar(50);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for DrawerTransactionModel
func (DrawerTransactionModel) TableName() string {
	return "cash_drawer_transactions"
}

// PackageBalanceModel maps a client's remaining prepaid sessions for a service
type PackageBalanceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index:idx_package_balances_client"`
	PackageID uuid.UUID `gorm:"type:uuid;not null"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index:idx_package_balances_client"`
	Remaining int       `gorm:"not null;default:0"`
	ExpiresAt *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for PackageBalanceModel
func (PackageBalanceModel) TableName() string {
	return "package_balances"
}

// SessionUsageModel maps one consumed prepaid session
type SessionUsageModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	BalanceID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	TabID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ServiceID   uuid.UUID  `gorm:"type:uuid;not null"`
	PerformerID *uuid.UUID `gorm:"type:uuid"`
	RevertedAt  *time.Time
	RevertNote  string    `gorm:"type:varchar(500)"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for SessionUsageModel
func (SessionUsageModel) TableName() string {
	return "session_usages"
}

// RecipeLineRecord is the stored form of one bill-of-materials line
type RecipeLineRecord struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Standard   decimal.Decimal `json:"standard"`
	Buffer     decimal.Decimal `json:"buffer"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Continuous bool            `json:"continuous"`
}

// RecipeLineRecords is stored as jsonb
type RecipeLineRecords []RecipeLineRecord

// Value implements driver.Valuer for RecipeLineRecords
func (r RecipeLineRecords) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	return string(b), err
}

// Scan implements sql.Scanner for RecipeLineRecords
func (r *RecipeLineRecords) Scan(value any) error {
	if value == nil {
		*r = RecipeLineRecords{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return errors.New("unsupported type for RecipeLineRecords")
}

// RecipeVariantRecord is the stored form of one recipe variant
type RecipeVariantRecord struct {
	ID         uuid.UUID       `json:"id"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Default    bool            `json:"default"`
}

// RecipeVariantRecords is stored as jsonb
type RecipeVariantRecords []RecipeVariantRecord

// Value implements driver.Valuer for RecipeVariantRecords
func (r RecipeVariantRecords) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	return string(b), err
}

// Scan implements sql.Scanner for RecipeVariantRecords
func (r *RecipeVariantRecords) Scan(value any) error {
	if value == nil {
		*r = RecipeVariantRecords{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return errors.New("unsupported type for RecipeVariantRecords")
}

// RecipeModel maps the versioned bill of materials for a service
type RecipeModel struct {
	ID        uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID            `gorm:"type:uuid;not null;index:idx_recipes_service"`
	ServiceID uuid.UUID            `gorm:"type:uuid;not null;index:idx_recipes_service"`
	Version   int                  `gorm:"not null;default:1"`
	Active    bool                 `gorm:"not null;default:true"`
	Lines     RecipeLineRecords    `gorm:"type:jsonb;not null;default:'[]'"`
	Variants  RecipeVariantRecords `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time            `gorm:"not null"`
	UpdatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for RecipeModel
func (RecipeModel) TableName() string {
	return "service_recipes"
}

// CommissionModel maps staff commission records created at settlement
type CommissionModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TabID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commissions_item"`
	PerformerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(255)"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Percentage  decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for CommissionModel
func (CommissionModel) TableName() string {
	return "staff_commissions"
}

// LoyaltyAccountModel maps a client's loyalty balance and tier
type LoyaltyAccountModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_client"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_client"`
	Points    int       `gorm:"not null;default:0"`
	Tier      string    `gorm:"type:varchar(20);not null;default:'BRONZE'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for LoyaltyAccountModel
func (LoyaltyAccountModel) TableName() string {
	return "loyalty_accounts"
}

// ClientModel maps the minimal client fields the engine touches
type ClientModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	LastVisitAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for ClientModel
func (ClientModel) TableName() string {
	return "clients"
}

// FeeRuleModel maps configured payment fee rules. A rule binds to either
// a payment method or a destination account, never both.
type FeeRuleModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MethodID      *uuid.UUID      `gorm:"type:uuid;index"`
	DestinationID *uuid.UUID      `gorm:"type:uuid;index"`
	Mode          string          `gorm:"type:varchar(10);not null"`
	Value         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for FeeRuleModel
func (FeeRuleModel) TableName() string {
	return "payment_fee_rules"
}

// StaffMemberModel maps the staff directory entries the engine reads
type StaffMemberModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_staff_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_staff_user"`
	Role      string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for StaffMemberModel
func (StaffMemberModel) TableName() string {
	return "staff_members"
}

// AppointmentModel maps the scheduling fields the engine reads
type AppointmentModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	PerformerID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for AppointmentModel
func (AppointmentModel) TableName() string {
	return "appointments"
}
