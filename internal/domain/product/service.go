// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

// ErrNotFound is returned for ids that are not cached
var ErrNotFound = errors.New("product not found")

// State is the product store snapshot
type State struct {
	Products []Product
	Query    Query
	Page     store.Page
	Selected *Product
	Loading  bool
	Loaded   bool
}

// Store mirrors the products of a store or admin dashboard
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	limit int
	log   logrus.FieldLogger
}

// NewStore creates the product store
func NewStore(api API, deps store.Deps, limit int) *Store {
	deps = deps.WithDefaults()
	if limit < 1 {
		limit = 20
	}
	return &Store{
		state: store.New(State{}),
		api:   api,
		deps:  deps,
		limit: limit,
		log:   deps.Logger.WithField("store", "product"),
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	return s.state.Snapshot()
}

// Subscribe registers fn for every change
func (s *Store) Subscribe(fn func(State)) func() {
	return s.state.Subscribe(fn)
}

// Load is the hook entry point
func (s *Store) Load(ctx context.Context) error {
	return s.Fetch(ctx, Query{Page: 1})
}

// Reset empties the cache and drops in-flight fetches
func (s *Store) Reset() {
	s.state.Reset()
}

// Product returns the cached product with id
func (s *Store) Product(id string) (Product, bool) {
	p, _, ok := store.FindByID(s.state.Snapshot().Products, id)
	return p, ok
}

// Fetch loads a page of products. Page 1 or a changed filter replaces the
// cache; later pages merge by id.
func (s *Store) Fetch(ctx context.Context, q Query) error {
	if !s.deps.Authenticated() {
		return nil
	}
	if q.Status != "" && !q.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, q.Status)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.limit
	}

	replace := q.Page == 1 || !q.sameFilter(s.state.Snapshot().Query)
	var epoch store.Epoch
	if replace {
		q.Page = 1
		epoch = s.state.Begin()
	} else {
		epoch = s.state.Epoch()
	}
	s.state.Commit(epoch, func(st State) State {
		st.Loading = true
		return st
	})

	res, err := s.api.List(ctx, q)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Loading = false
			return st
		})
		s.log.WithError(err).WithField("page", q.Page).Warn("Failed to fetch products")
		toast.Error(s.deps.Notifier, "Could not load products: %s", apiclient.Message(err))
		return fmt.Errorf("fetch products: %w", err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Products = store.Apply[Product, string](st.Products, res.Products, q.Page)
		st.Query = q
		st.Page = store.Page{Number: res.Page, Limit: q.Limit, Total: res.Total, TotalPages: res.TotalPages}
		if st.Page.Number < 1 {
			st.Page.Number = q.Page
		}
		st.Loading = false
		st.Loaded = true
		return st
	})
	return nil
}

// LoadMore fetches the next page with the current query
func (s *Store) LoadMore(ctx context.Context) error {
	st := s.state.Snapshot()
	if !st.Page.HasMore() || st.Loading {
		return nil
	}
	q := st.Query
	q.Page = st.Page.Next()
	return s.Fetch(ctx, q)
}

// Get loads one product and selects it
func (s *Store) Get(ctx context.Context, id string) (*Product, error) {
	if !s.deps.Authenticated() {
		return nil, apiclient.ErrUnauthenticated
	}

	epoch := s.state.Epoch()
	p, err := s.api.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to fetch product")
		toast.Error(s.deps.Notifier, "Could not load product: %s", apiclient.Message(err))
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Products, _ = store.ReplaceByID[Product, string](st.Products, *p)
		selected := *p
		st.Selected = &selected
		return st
	})
	return p, nil
}

// Update patches a product optimistically. The server's product replaces the
// cached one on success; on failure every field this update wrote and nobody
// overwrote since goes back to its previous value.
func (s *Store) Update(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		prev    Product
		applied bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Products, prev, applied = store.UpdateByID(st.Products, id, req.ApplyTo)
		st.Selected = reselect(st.Selected, st.Products)
		return st
	})
	if !applied {
		return nil, ErrNotFound
	}

	updated, err := s.api.Update(ctx, id, req)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Products, _, _ = store.UpdateByID(st.Products, id, func(cur Product) Product {
				return req.revert(prev, cur)
			})
			st.Selected = reselect(st.Selected, st.Products)
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "update", "id": id}).Warn("Product update failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not update %s: %s", prev.Name, apiclient.Message(err))
		return nil, fmt.Errorf("update product: %w", err)
	}

	result := req.ApplyTo(prev)
	if updated != nil {
		result = *updated
		s.state.Commit(epoch, func(st State) State {
			st.Products, _ = store.ReplaceByID[Product, string](st.Products, result)
			st.Selected = reselect(st.Selected, st.Products)
			return st
		})
	}
	toast.Success(s.deps.Notifier, "Saved %s", result.Name)
	return &result, nil
}

// Remove deletes a product optimistically and re-inserts it on failure
func (s *Store) Remove(ctx context.Context, id string) error {
	var (
		removed Product
		index   int
		ok      bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Products, removed, index, ok = store.RemoveByID(st.Products, id)
		if ok && st.Page.Total > 0 {
			st.Page.Total--
		}
		if ok && st.Selected != nil && st.Selected.ID == id {
			st.Selected = nil
		}
		return st
	})
	if !ok {
		return ErrNotFound
	}

	if err := s.api.Delete(ctx, id); err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Products = store.InsertAt[Product, string](st.Products, index, removed)
			st.Page.Total++
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "remove", "id": id}).Warn("Product delete failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not delete %s: %s", removed.Name, apiclient.Message(err))
		return fmt.Errorf("delete product: %w", err)
	}

	toast.Success(s.deps.Notifier, "Deleted %s", removed.Name)
	return nil
}

// revert restores the fields r wrote from prev, skipping any field whose
// current value no longer matches what r wrote
func (r UpdateRequest) revert(prev, cur Product) Product {
	if r.Name != nil && cur.Name == *r.Name {
		cur.Name = prev.Name
	}
	if r.Description != nil && cur.Description == *r.Description {
		cur.Description = prev.Description
	}
	if r.Price != nil && cur.Price == *r.Price {
		cur.Price = prev.Price
	}
	if r.CompareAtPrice != nil && cur.CompareAtPrice == *r.CompareAtPrice {
		cur.CompareAtPrice = prev.CompareAtPrice
	}
	if r.Stock != nil && cur.Stock == *r.Stock {
		cur.Stock = prev.Stock
	}
	if r.Status != nil && cur.Status == *r.Status {
		cur.Status = prev.Status
	}
	return cur
}

func reselect(selected *Product, products []Product) *Product {
	if selected == nil {
		return nil
	}
	p, _, ok := store.FindByID(products, selected.ID)
	if !ok {
		return selected
	}
	return &p
}
