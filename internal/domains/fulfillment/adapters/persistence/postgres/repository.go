package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

var (
	_ ports.Repository      = (*Repository)(nil)
	_ ports.InventoryLedger = (*Repository)(nil)
)

// Repository persists orders, lines, and inventory mutations in PostgreSQL
// using GORM. Inventory decrements are single conditional UPDATE statements,
// never a read-then-write, so concurrent checkouts cannot oversell.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB
// lifecycle; the connection must be opened with TranslateError enabled so
// duplicate idempotency keys surface as gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&productRecord{}, &orderRecord{}, &orderLineRecord{})
	}
	return repo
}

// productRecord is the externally-owned catalog row this core consumes. Only
// quantity is ever mutated here.
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

// orderLineRecord rows are written once at checkout and never updated; the
// frozen price and ownership snapshot is the audit trail.
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

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Reserve performs the atomic conditional decrement as a standalone
// statement. Zero rows affected means either a missing product or not
// enough stock; an existence check disambiguates.
func (r *Repository) Reserve(ctx context.Context, productID int64, quantity int32) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return reserveTx(r.db.WithContext(ctx), productID, quantity)
}

// Restore unconditionally returns quantity to the product row.
func (r *Repository) Restore(ctx context.Context, productID int64, quantity int32) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return restoreTx(r.db.WithContext(ctx), productID, quantity)
}

func reserveTx(tx *gorm.DB, productID int64, quantity int32) error {
	result := tx.Model(&productRecord{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&productRecord{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ports.ErrProductNotFound
		}
		return ports.ErrInsufficientStock
	}
	return nil
}

func restoreTx(tx *gorm.DB, productID int64, quantity int32) error {
	return tx.Model(&productRecord{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error
}

// CreateOrder reserves every line's quantity and inserts the order header
// plus all lines in one transaction. Reservations run in ascending product
// order so concurrent checkouts sharing products cannot deadlock.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var orderID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := reserveTx(tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		record := orderRecord{
			CustomerID:    order.CustomerID,
			TotalCents:    order.TotalCents,
			Status:        string(order.Status),
			DistributorID: order.DistributorID,
		}
		if idempotencyKey != "" {
			record.IdempotencyKey = &idempotencyKey
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ports.ErrDuplicateCheckout
			}
			return err
		}
		lineRecords := make([]orderLineRecord, 0, len(lines))
		for _, line := range lines {
			lineRecords = append(lineRecords, orderLineRecord{
				OrderID:        record.ID,
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				UnitPriceCents: line.UnitPriceCents,
				FarmerID:       line.FarmerID,
				RetailerID:     line.RetailerID,
			})
		}
		if err := tx.Create(&lineRecords).Error; err != nil {
			return err
		}
		orderID = record.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := r.attachLines(ctx, []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := r.attachLines(ctx, []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// UpdateStatus persists a transition with a compare-and-swap on the
// previous status; a racing transition loses the swap and gets ErrConflict.
// Restocking (cancellation) shares the transaction with the status flip.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status, restock bool) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", order.ID, string(from)).
			Updates(map[string]any{
				"status":         string(order.Status),
				"distributor_id": order.DistributorID,
				"updated_at":     gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&orderRecord{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ports.ErrNotFound
			}
			return ports.ErrConflict
		}
		if restock {
			var lines []orderLineRecord
			if err := tx.Where("order_id = ?", order.ID).Find(&lines).Error; err != nil {
				return err
			}
			for _, line := range lines {
				if err := restoreTx(tx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, order.ID)
}

func (r *Repository) OrdersByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID)
	})
}

func (r *Repository) PendingOrdersByRetailer(ctx context.Context, retailerID int64) ([]*domain.Order, error) {
	pending := []string{string(domain.StatusPlaced), string(domain.StatusConfirmed)}
	// EXISTS keeps a multi-line order a single row; a join would duplicate it.
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"status IN ? AND EXISTS (SELECT 1 FROM order_lines l WHERE l.order_id = orders.id AND l.retailer_id = ?)",
			pending, retailerID,
		)
	})
}

func (r *Repository) OrdersByDistributor(ctx context.Context, distributorID int64, statuses []domain.Status) ([]*domain.Order, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		q = q.Where("distributor_id = ?", distributorID)
		if len(statuses) > 0 {
			names := make([]string, 0, len(statuses))
			for _, status := range statuses {
				names = append(names, string(status))
			}
			q = q.Where("status IN ?", names)
		}
		return q
	})
}

func (r *Repository) OrdersAwaitingPacking(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ? AND distributor_id IS NULL", string(domain.StatusConfirmed))
	})
}

func (r *Repository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	query := scope(r.db.WithContext(ctx).Model(&orderRecord{})).
		Order("created_at DESC").Order("id DESC")
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return r.attachLines(ctx, records)
}

// attachLines loads every order's lines in one batched query.
func (r *Repository) attachLines(ctx context.Context, records []orderRecord) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(records))
	if len(records) == 0 {
		return orders, nil
	}
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	var lineRecords []orderLineRecord
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("id ASC").Find(&lineRecords).Error; err != nil {
		return nil, err
	}
	linesByOrder := map[int64][]domain.OrderLine{}
	for _, line := range lineRecords {
		linesByOrder[line.OrderID] = append(linesByOrder[line.OrderID], line.toDomain())
	}
	for _, record := range records {
		orders = append(orders, record.toDomain(linesByOrder[record.ID]))
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres fulfillment repository not configured")
	}
	return nil
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:         r.ID,
		Quantity:   r.Quantity,
		PriceCents: r.PriceCents,
		FarmerID:   r.FarmerID,
		RetailerID: r.RetailerID,
	}
}

func (r orderRecord) toDomain(lines []domain.OrderLine) *domain.Order {
	return &domain.Order{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		TotalCents:    r.TotalCents,
		Status:        domain.Status(r.Status),
		DistributorID: r.DistributorID,
		Lines:         lines,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r orderLineRecord) toDomain() domain.OrderLine {
	return domain.OrderLine{
		ID:             r.ID,
		OrderID:        r.OrderID,
		ProductID:      r.ProductID,
		Quantity:       r.Quantity,
		UnitPriceCents: r.UnitPriceCents,
		FarmerID:       r.FarmerID,
		RetailerID:     r.RetailerID,
	}
}
