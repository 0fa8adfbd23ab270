// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

const snapshotKey = "cart"

var (
	// ErrInvalidQuantity is returned for quantities below 1; reaching zero is a removal
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInsufficientStock is returned when the requested quantity exceeds stock
	ErrInsufficientStock = errors.New("not enough stock")
	// ErrItemNotFound is returned for ids that are not in the cart
	ErrItemNotFound = errors.New("cart item not found")
	// ErrRemovalRequiresConfirmation is returned by Decrement at quantity 1.
	// The caller is expected to open the removal confirmation.
	ErrRemovalRequiresConfirmation = errors.New("removing the last unit requires confirmation")
)

// Store mirrors the server cart
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	log   logrus.FieldLogger
}

// NewStore creates the cart store
func NewStore(api API, deps store.Deps) *Store {
	deps = deps.WithDefaults()
	return &Store{
		state: store.New(State{}),
		api:   api,
		deps:  deps,
		log:   deps.Logger.WithField("store", "cart"),
	}
}

// Snapshot returns the current cart state
func (s *Store) Snapshot() State {
	return s.state.Snapshot()
}

// Subscribe registers fn for every cart change
func (s *Store) Subscribe(fn func(State)) func() {
	return s.state.Subscribe(fn)
}

// Totals are recomputed from the cached items on every call
func (s *Store) Totals() Totals {
	return CalculateTotals(s.state.Snapshot().Items)
}

// Item returns the cached item with id
func (s *Store) Item(id string) (CartItem, bool) {
	item, _, ok := store.FindByID(s.state.Snapshot().Items, id)
	return item, ok
}

// Load is the hook entry point
func (s *Store) Load(ctx context.Context) error {
	return s.Fetch(ctx)
}

// Reset empties the cart cache. In-flight fetches and rollbacks become no-ops.
func (s *Store) Reset() {
	s.state.Reset()
}

// Fetch replaces the cached cart with the server cart. Without a token it
// returns immediately. On failure the previous items stay, or the saved
// snapshot is shown when nothing was loaded yet.
func (s *Store) Fetch(ctx context.Context) error {
	if !s.deps.Authenticated() {
		return nil
	}

	epoch := s.state.Begin()
	s.state.Update(func(st State) State {
		st.Loading = true
		return st
	})

	c, err := s.api.GetCart(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch cart")
		s.state.Commit(epoch, func(st State) State {
			st.Loading = false
			return st
		})
		if s.hydrate(ctx, epoch) {
			toast.Info(s.deps.Notifier, "Showing your saved cart, it may be out of date")
		} else {
			toast.Error(s.deps.Notifier, "Could not load your cart: %s", apiclient.Message(err))
		}
		return fmt.Errorf("fetch cart: %w", err)
	}

	items := store.Dedupe[CartItem, string](c.Items)
	if s.state.Commit(epoch, func(State) State {
		return State{Items: items, Loaded: true}
	}) {
		s.persist(ctx)
	}
	return nil
}

// Add puts a variant in the cart. The server decides the resulting line, so
// the cart is reconciled from its response instead of guessed locally.
func (s *Store) Add(ctx context.Context, variantID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	epoch := s.state.Epoch()
	c, err := s.api.AddItem(ctx, variantID, quantity)
	if err != nil {
		s.log.WithError(err).WithField("variant_id", variantID).Warn("Failed to add to cart")
		toast.Error(s.deps.Notifier, "Could not add to cart: %s", apiclient.Message(err))
		return fmt.Errorf("add to cart: %w", err)
	}

	items := store.Dedupe[CartItem, string](c.Items)
	if !s.state.Commit(epoch, func(st State) State {
		st.Items = items
		st.Loaded = true
		st.Stale = false
		return st
	}) {
		return nil
	}
	s.persist(ctx)
	toast.Success(s.deps.Notifier, "Added to cart")
	return nil
}

// SetQuantity changes an item's quantity optimistically. A failed call puts
// the previous item back.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	current, ok := s.Item(id)
	if !ok {
		return ErrItemNotFound
	}
	if limit := current.MaxQuantity(); limit > 0 && quantity > limit {
		toast.Error(s.deps.Notifier, "Only %d left in stock", limit)
		return ErrInsufficientStock
	}
	if current.Quantity == quantity {
		return nil
	}

	var (
		prev    CartItem
		applied bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Items, prev, applied = store.UpdateByID(st.Items, id, func(item CartItem) CartItem {
			item.Quantity = quantity
			return item
		})
		return st
	})
	if !applied {
		return ErrItemNotFound
	}

	updated, err := s.api.UpdateItem(ctx, prev.VariantID, quantity)
	if err != nil {
		s.rollbackQuantity(epoch, prev, quantity)
		s.log.WithError(err).WithFields(logrus.Fields{"op": "set_quantity", "id": id}).Warn("Cart update failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not update quantity: %s", apiclient.Message(err))
		return fmt.Errorf("update cart item: %w", err)
	}

	if updated != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Items, _ = store.ReplaceByID[CartItem, string](st.Items, *updated)
			return st
		})
	}
	s.persist(ctx)
	return nil
}

// rollbackQuantity restores prev unless a newer mutation already replaced
// the value this one wrote or the cart was reset since epoch
func (s *Store) rollbackQuantity(epoch store.Epoch, prev CartItem, written int) {
	s.state.Commit(epoch, func(st State) State {
		st.Items, _, _ = store.UpdateByID(st.Items, prev.ID, func(item CartItem) CartItem {
			if item.Quantity != written {
				return item
			}
			return prev
		})
		return st
	})
}

// Increment adds one unit
func (s *Store) Increment(ctx context.Context, id string) error {
	item, ok := s.Item(id)
	if !ok {
		return ErrItemNotFound
	}
	return s.SetQuantity(ctx, id, item.Quantity+1)
}

// Decrement removes one unit. At quantity 1 it refuses with
// ErrRemovalRequiresConfirmation instead of writing 0.
func (s *Store) Decrement(ctx context.Context, id string) error {
	item, ok := s.Item(id)
	if !ok {
		return ErrItemNotFound
	}
	if item.Quantity <= 1 {
		return ErrRemovalRequiresConfirmation
	}
	return s.SetQuantity(ctx, id, item.Quantity-1)
}

// Remove deletes an item optimistically. A failed call re-inserts it at its
// original position.
func (s *Store) Remove(ctx context.Context, id string) error {
	var (
		removed CartItem
		index   int
		ok      bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Items, removed, index, ok = store.RemoveByID(st.Items, id)
		return st
	})
	if !ok {
		return ErrItemNotFound
	}

	if err := s.api.RemoveItem(ctx, removed.VariantID); err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Items = store.InsertAt[CartItem, string](st.Items, index, removed)
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "remove", "id": id}).Warn("Cart removal failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not remove %s: %s", removed.Variant.Product.Name, apiclient.Message(err))
		return fmt.Errorf("remove cart item: %w", err)
	}

	s.persist(ctx)
	toast.Success(s.deps.Notifier, "Removed %s from cart", removed.Variant.Product.Name)
	return nil
}

// Clear empties the cart optimistically and restores it on failure
func (s *Store) Clear(ctx context.Context) error {
	epoch := s.state.Epoch()
	prev, _ := s.state.Update(func(st State) State {
		st.Items = nil
		return st
	})
	if len(prev.Items) == 0 {
		return nil
	}

	if err := s.api.Clear(ctx); err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Items = store.MergeByID[CartItem, string](prev.Items, st.Items)
			return st
		})
		s.log.WithError(err).Warn("Cart clear failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not clear cart: %s", apiclient.Message(err))
		return fmt.Errorf("clear cart: %w", err)
	}

	s.persist(ctx)
	return nil
}

func (s *Store) persist(ctx context.Context) {
	if s.deps.Snapshots == nil {
		return
	}
	if err := s.deps.Snapshots.SaveSnapshot(ctx, snapshotKey, s.state.Snapshot().Items); err != nil {
		s.log.WithError(err).Debug("Failed to save cart snapshot")
	}
}

// hydrate shows the saved snapshot when nothing was loaded from the API yet
func (s *Store) hydrate(ctx context.Context, epoch store.Epoch) bool {
	if s.deps.Snapshots == nil || s.state.Snapshot().Loaded {
		return false
	}
	var items []CartItem
	found, err := s.deps.Snapshots.LoadSnapshot(ctx, snapshotKey, &items)
	if err != nil || !found {
		return false
	}
	return s.state.Commit(epoch, func(State) State {
		return State{Items: items, Loaded: true, Stale: true}
	})
}
