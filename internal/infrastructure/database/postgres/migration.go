// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the password of every seeded sandbox account
const SeedPassword = "password123"

// Migration handles the sandbox schema and seed data
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// models lists every table in dependency order
func models() []interface{} {
	return []interface{}{
		&User{},
		&Store{},
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Notification{},
		&Review{},
		&Voucher{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("🔄 Running database auto-migrations...")

	for _, model := range models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates the composite indexes the list endpoints sort by
func (m *Migration) CreateIndexes() error {
	m.logger.Info("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_store_status ON products(store_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products(updated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_store_status ON orders(store_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_histories_order ON order_status_histories(order_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, is_read)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_store_window ON vouchers(store_id, starts_at, ends_at)",
	}

	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		}
	}

	m.logger.Infof("✅ Created %d indexes successfully (%d failed)", len(indexes)-failCount, failCount)
	if failCount > 0 {
		return fmt.Errorf("%d indexes could not be created", failCount)
	}
	return nil
}

// SeedInitialData inserts demo accounts, a store with its catalog and
// activity for every dashboard. It does nothing when the accounts exist.
func (m *Migration) SeedInitialData(bcryptCost int) error {
	var existing User
	err := m.db.Where("email = ?", "admin@example.com").First(&existing).Error
	if err == nil {
		m.logger.Info("⏭️ Seed data already present")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check seed data: %w", err)
	}

	m.logger.Info("🌱 Seeding initial data...")

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := m.db.Transaction(func(tx *gorm.DB) error {
		return seed(tx, string(hash), time.Now().UTC())
	}); err != nil {
		return fmt.Errorf("failed to seed data: %w", err)
	}

	m.logger.WithField("password", SeedPassword).
		Info("✅ Seeded superadmin@, admin@, owner@ and customer@example.com")
	return nil
}

func seed(tx *gorm.DB, passwordHash string, now time.Time) error {
	users := []*User{
		{Name: "Sam Superadmin", Email: "superadmin@example.com", Role: "SUPERADMIN"},
		{Name: "Alex Admin", Email: "admin@example.com", Role: "ADMIN"},
		{Name: "Olive Owner", Email: "owner@example.com", Role: "STORE_OWNER"},
		{Name: "Casey Customer", Email: "customer@example.com", Role: "CUSTOMER"},
	}
	for _, u := range users {
		u.PasswordHash = passwordHash
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}
	owner, customer := users[2], users[3]

	store := &Store{Name: "Northwind Outfitters", Slug: "northwind", OwnerID: owner.ID}
	if err := tx.Create(store).Error; err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := tx.Model(owner).Update("store_id", store.ID).Error; err != nil {
		return fmt.Errorf("store owner: %w", err)
	}

	products := []*Product{
		{
			Name: "Trail Tee", Slug: "trail-tee", Description: "Merino blend tee for long days outside.",
			Price: 2500, CompareAtPrice: 3000, Stock: 40, Status: "ACTIVE",
			Variants: []ProductVariant{
				{SKU: "TEE-M-BLK", Size: "M", Color: "Black", Price: 2500, CompareAtPrice: 3000, Stock: 12},
				{SKU: "TEE-L-BLK", Size: "L", Color: "Black", Price: 2500, CompareAtPrice: 3000, Stock: 3},
			},
		},
		{
			Name: "Canvas Cap", Slug: "canvas-cap", Description: "Waxed canvas six-panel cap.",
			Price: 1800, Stock: 25, Status: "ACTIVE",
			Variants: []ProductVariant{
				{SKU: "CAP-OS-OLV", Size: "One size", Color: "Olive", Price: 1800, Stock: 25},
			},
		},
		{
			Name: "Rain Shell", Slug: "rain-shell", Description: "Packable 2.5 layer shell.",
			Price: 8900, CompareAtPrice: 11000, Stock: 0, Status: "DRAFT",
			Variants: []ProductVariant{
				{SKU: "SHELL-M-BLU", Size: "M", Color: "Blue", Price: 8900, CompareAtPrice: 11000},
			},
		},
	}
	for _, p := range products {
		p.StoreID = store.ID
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("product %s: %w", p.Slug, err)
		}
	}
	tee, hat := products[0], products[1]

	cartItems := []*CartItem{
		{UserID: customer.ID, VariantID: tee.Variants[0].ID, Quantity: 3},
		{UserID: customer.ID, VariantID: hat.Variants[0].ID, Quantity: 1},
	}
	for _, item := range cartItems {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("cart item: %w", err)
		}
	}

	orders := []*Order{
		{
			OrderNumber: "ORD-1001", UserID: customer.ID, StoreID: store.ID, Status: "PAID",
			TotalAmount: 6800, Currency: "USD",
			Items: []OrderItem{
				{ProductID: tee.ID, VariantID: tee.Variants[1].ID, Name: tee.Name, VariantTitle: tee.Variants[1].Title(), Quantity: 2, Price: 2500},
				{ProductID: hat.ID, VariantID: hat.Variants[0].ID, Name: hat.Name, VariantTitle: hat.Variants[0].Title(), Quantity: 1, Price: 1800},
			},
		},
		{
			OrderNumber: "ORD-1002", UserID: customer.ID, StoreID: store.ID, Status: "SHIPPED",
			TotalAmount: 1800, Currency: "USD", TrackingNumber: "1Z999AA10123456784",
			Items: []OrderItem{
				{ProductID: hat.ID, VariantID: hat.Variants[0].ID, Name: hat.Name, VariantTitle: hat.Variants[0].Title(), Quantity: 1, Price: 1800},
			},
		},
	}
	for i, o := range orders {
		o.CreatedAt = now.Add(-time.Duration(len(orders)-i) * 24 * time.Hour)
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("order %s: %w", o.OrderNumber, err)
		}
	}

	types := []string{"ORDER_UPDATE", "PROMOTION", "REVIEW_REPLY", "STOCK_ALERT", "SYSTEM"}
	for i := 0; i < 25; i++ {
		n := &Notification{
			UserID: customer.ID,
			Title:  fmt.Sprintf("Sandbox notification %d", i+1),
			Body:   "Generated by the sandbox seed.",
			Type:   types[i%len(types)],
			IsRead: i < 5,
		}
		n.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		if err := tx.Create(n).Error; err != nil {
			return fmt.Errorf("notification: %w", err)
		}
	}

	repliedAt := now.Add(-2 * time.Hour)
	reviews := []*Review{
		{ProductID: tee.ID, UserID: customer.ID, Rating: 4, Comment: "Soft and warm, runs a little small.", EditCount: 2},
		{ProductID: hat.ID, UserID: customer.ID, Rating: 5, Comment: "Great cap.", EditCount: 3,
			ReplyText: "Thanks for the kind words!", RepliedAt: &repliedAt},
	}
	for _, r := range reviews {
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("review: %w", err)
		}
	}

	ended := now.Add(-24 * time.Hour)
	vouchers := []*Voucher{
		{Code: "WELCOME10", Type: "PERCENTAGE", Value: 10, MaxDiscount: 2000, StartsAt: now.Add(-30 * 24 * time.Hour)},
		{Code: "NORTHWIND5", Type: "FIXED_AMOUNT", Value: 500, MinSpend: 3000, UsageLimit: 100, UsedCount: 12, StoreID: store.ID, StartsAt: now.Add(-7 * 24 * time.Hour)},
		{Code: "SHIPFREE", Type: "FREE_SHIPPING", MinSpend: 5000, StoreID: store.ID, StartsAt: now.Add(-14 * 24 * time.Hour)},
		{Code: "SUMMER", Type: "PERCENTAGE", Value: 20, StoreID: store.ID, StartsAt: now.Add(-90 * 24 * time.Hour), EndsAt: &ended},
	}
	for _, v := range vouchers {
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("voucher %s: %w", v.Code, err)
		}
	}

	return nil
}

// DropAllTables drops all sandbox tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	m.logger.Warn("⚠️ WARNING: Dropping all database tables...")

	all := models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", all[i], err)
		}
	}

	m.logger.Info("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo logs the row count of every sandbox table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		totalRecords += count
		m.logger.WithField("records", count).Infof("📊 %s", table)
	}

	m.logger.WithFields(logrus.Fields{
		"tables":  len(tables),
		"records": totalRecords,
	}).Info("📈 Database summary")
	return nil
}
