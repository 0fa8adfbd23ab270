// internal/domain/promotion/service.go
package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

// ErrNotFound is returned for ids that are not cached
var ErrNotFound = errors.New("voucher not found")

// State is the promotion store snapshot
type State struct {
	Vouchers []Voucher
	Filter   Filter
	Page     store.Page
	Loading  bool
	Loaded   bool
}

// ActiveCount counts the vouchers usable at now
func (s State) ActiveCount(now time.Time) int {
	n := 0
	for _, v := range s.Vouchers {
		if v.Active(now) && !v.Exhausted() {
			n++
		}
	}
	return n
}

// Store mirrors the vouchers of a store or of the platform
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	scope Filter
	limit int
	log   logrus.FieldLogger
}

// NewStore creates the promotion store. scope is the filter Load uses.
func NewStore(api API, deps store.Deps, scope Filter, limit int) *Store {
	deps = deps.WithDefaults()
	if limit < 1 {
		limit = 20
	}
	return &Store{
		state: store.New(State{}),
		api:   api,
		deps:  deps,
		scope: scope,
		limit: limit,
		log:   deps.Logger.WithField("store", "promotion"),
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

// Voucher returns the cached voucher with id
func (s *Store) Voucher(id string) (Voucher, bool) {
	v, _, ok := store.FindByID(s.state.Snapshot().Vouchers, id)
	return v, ok
}

// Load is the hook entry point
func (s *Store) Load(ctx context.Context) error {
	f := s.scope
	f.Page = 1
	return s.Fetch(ctx, f)
}

// Reset empties the cache and drops in-flight fetches
func (s *Store) Reset() {
	s.state.Reset()
}

// Fetch loads a page of vouchers. Page 1 replaces the cache; later pages
// merge by id.
func (s *Store) Fetch(ctx context.Context, f Filter) error {
	if !s.deps.Authenticated() {
		return nil
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = s.limit
	}

	var epoch store.Epoch
	if f.Page == 1 {
		epoch = s.state.Begin()
	} else {
		epoch = s.state.Epoch()
	}

	res, err := s.api.List(ctx, f)
	if err != nil {
		s.log.WithError(err).WithField("page", f.Page).Warn("Failed to fetch vouchers")
		toast.Error(s.deps.Notifier, "Could not load vouchers: %s", apiclient.Message(err))
		return fmt.Errorf("fetch vouchers: %w", err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Vouchers = store.Apply[Voucher, string](st.Vouchers, res.Vouchers, f.Page)
		st.Filter = f
		st.Page = store.Page{Number: res.Page, Limit: f.Limit, Total: res.Total, TotalPages: res.TotalPages}
		if st.Page.Number < 1 {
			st.Page.Number = f.Page
		}
		st.Loaded = true
		return st
	})
	return nil
}

// LoadMore fetches the next page
func (s *Store) LoadMore(ctx context.Context) error {
	st := s.state.Snapshot()
	if !st.Page.HasMore() {
		return nil
	}
	f := st.Filter
	f.Page = st.Page.Next()
	return s.Fetch(ctx, f)
}

// Remove deletes a voucher optimistically and re-inserts it on failure
func (s *Store) Remove(ctx context.Context, id string) error {
	var (
		removed Voucher
		index   int
		ok      bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Vouchers, removed, index, ok = store.RemoveByID(st.Vouchers, id)
		if ok && st.Page.Total > 0 {
			st.Page.Total--
		}
		return st
	})
	if !ok {
		return ErrNotFound
	}

	if err := s.api.Delete(ctx, id); err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Vouchers = store.InsertAt[Voucher, string](st.Vouchers, index, removed)
			st.Page.Total++
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "remove", "id": id}).Warn("Voucher delete failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not delete voucher %s: %s", removed.Code, apiclient.Message(err))
		return fmt.Errorf("delete voucher: %w", err)
	}

	toast.Success(s.deps.Notifier, "Voucher %s deleted", removed.Code)
	return nil
}
