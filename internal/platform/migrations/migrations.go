package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the fulfillment schema. Intended to replace adapter-level
// automigrate in deployments that manage schema centrally.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&orderRecord{},
		&orderLineRecord{},
	)
}

// Product schema mirrors the catalog row the inventory ledger decrements.
type productRecord struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	Quantity   int32     `gorm:"column:quantity"`
	PriceCents int64     `gorm:"column:price_cents"`
	FarmerID   *int64    `gorm:"column:farmer_id;index"`
	RetailerID *int64    `gorm:"column:retailer_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Order schema mirrors the fulfillment Postgres adapter.
type orderRecord struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	CustomerID     int64     `gorm:"column:customer_id;index:idx_orders_customer_created"`
	TotalCents     int64     `gorm:"column:total_cents"`
	Status         string    `gorm:"column:status;type:varchar(32);index:idx_orders_status_distributor"`
	DistributorID  *int64    `gorm:"column:distributor_id;index:idx_orders_status_distributor"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex"`
	CreatedAt      time.Time `gorm:"column:created_at;index:idx_orders_customer_created"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Order line schema: rows are append-only; the frozen price/ownership
// snapshot is never updated after checkout.
type orderLineRecord struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	OrderID        int64     `gorm:"column:order_id;index"`
	ProductID      int64     `gorm:"column:product_id;index"`
	Quantity       int32     `gorm:"column:quantity"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents"`
	FarmerID       int64     `gorm:"column:farmer_id;index"`
	RetailerID     int64     `gorm:"column:retailer_id;index"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (orderLineRecord) TableName() string { return "order_lines" }
