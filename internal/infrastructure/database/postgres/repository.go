// internal/infrastructure/database/postgres/repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-client/internal/domain/auth"
	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Scope is who a query runs for. Customers see their own records, store
// owners their store's, admins everything.
type Scope struct {
	UserID  string
	StoreID string
	Role    auth.Role
}

// Admin reports whether the scope sees every record
func (s Scope) Admin() bool {
	return s.Role == auth.RoleAdmin || s.Role == auth.RoleSuperAdmin
}

// OwnsStore reports whether the scope may manage storeID's records
func (s Scope) OwnsStore(storeID string) bool {
	return s.Admin() || (s.Role == auth.RoleStoreOwner && s.StoreID != "" && s.StoreID == storeID)
}

// Page is a normalized page request
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit to sane values
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages returns the number of pages needed for total rows
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Repository is the sandbox's data access layer
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// paginate counts the rows matched by q and loads one page of them, with
// the given associations, into dest
func paginate[T any](q *gorm.DB, page Page, order string, dest *[]T, preloads ...string) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}

	find := q.Order(order).Offset(page.Offset()).Limit(page.Limit)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	if err := find.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UserByEmail loads an account for login
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where("email = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// UserByID loads an account
func (r *Repository) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *Repository) notify(tx *gorm.DB, userID string, n Notification) error {
	n.UserID = userID
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
