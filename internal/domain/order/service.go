// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

// ErrInvalidStatus is returned for status values outside the closed set
var ErrInvalidStatus = errors.New("invalid order status")

// State is the order store snapshot
type State struct {
	Orders   []Order
	Filter   Filter
	Page     store.Page
	Selected *Order
	Loading  bool
	Loaded   bool
}

// Store mirrors the user's (or the store dashboard's) orders
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	limit int
	log   logrus.FieldLogger
}

// NewStore creates the order store
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
		log:   deps.Logger.WithField("store", "order"),
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
	return s.Fetch(ctx, Filter{Page: 1})
}

// Reset empties the cache and drops in-flight fetches
func (s *Store) Reset() {
	s.state.Reset()
}

// View applies the page's search, filter and sort to the cached orders
func (s *Store) View(q Query) []Order {
	return q.Apply(s.state.Snapshot().Orders)
}

// Fetch loads a page of orders. Page 1 (or a new status filter) replaces the
// cache; later pages merge by id.
func (s *Store) Fetch(ctx context.Context, filter Filter) error {
	if !s.deps.Authenticated() {
		return nil
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return ErrInvalidStatus
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = s.limit
	}

	prevFilter := s.state.Snapshot().Filter
	replace := filter.Page == 1 || filter.Status != prevFilter.Status
	if replace {
		filter.Page = 1
	}

	var epoch store.Epoch
	if replace {
		epoch = s.state.Begin()
	} else {
		epoch = s.state.Epoch()
	}
	s.state.Commit(epoch, func(st State) State {
		st.Loading = true
		return st
	})

	res, err := s.api.List(ctx, filter)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Loading = false
			return st
		})
		s.log.WithError(err).WithField("status", filter.Status).Warn("Failed to fetch orders")
		toast.Error(s.deps.Notifier, "Could not load orders: %s", apiclient.Message(err))
		return fmt.Errorf("fetch orders: %w", err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Orders = store.Apply[Order, string](st.Orders, res.Orders, filter.Page)
		st.Filter = filter
		st.Page = store.Page{Number: res.Page, Limit: filter.Limit, Total: res.Total, TotalPages: res.TotalPages}
		st.Loading = false
		st.Loaded = true
		return st
	})
	return nil
}

// LoadMore fetches the next page with the current filter
func (s *Store) LoadMore(ctx context.Context) error {
	st := s.state.Snapshot()
	if !st.Page.HasMore() || st.Loading {
		return nil
	}
	filter := st.Filter
	filter.Page = st.Page.Next()
	return s.Fetch(ctx, filter)
}

// Get loads one order, selects it and refreshes its cached copy
func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	if !s.deps.Authenticated() {
		return nil, apiclient.ErrUnauthenticated
	}

	epoch := s.state.Epoch()
	o, err := s.api.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to fetch order")
		toast.Error(s.deps.Notifier, "Could not load order: %s", apiclient.Message(err))
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Orders, _ = store.ReplaceByID[Order, string](st.Orders, *o)
		selected := *o
		st.Selected = &selected
		return st
	})
	return o, nil
}

// RequestStatusChange asks the server to move an order to status. Nothing is
// changed locally until the server answers; its order replaces the cached one.
func (s *Store) RequestStatusChange(ctx context.Context, id string, status Status, note string) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	epoch := s.state.Epoch()
	o, err := s.api.ChangeStatus(ctx, id, StatusChangeRequest{Status: status, Note: note})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"id": id, "status": status}).Warn("Order status change rejected")
		toast.Error(s.deps.Notifier, "Could not update order: %s", apiclient.Message(err))
		return nil, fmt.Errorf("change order status: %w", err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Orders, _ = store.ReplaceByID[Order, string](st.Orders, *o)
		if st.Selected != nil && st.Selected.ID == o.ID {
			selected := *o
			st.Selected = &selected
		}
		return st
	})
	toast.Success(s.deps.Notifier, "Order %s is now %s", o.OrderNumber, o.Status.Label())
	return o, nil
}
