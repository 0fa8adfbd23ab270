// internal/domain/notification/service.go
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

// DefaultPageSize is used when the store is created with a non-positive limit
const DefaultPageSize = 20

// ErrNotFound is returned for ids that are not cached
var ErrNotFound = errors.New("notification not found")

// State is the notification store snapshot
type State struct {
	Items   []Notification
	Page    store.Page
	Loading bool
	Loaded  bool
}

// UnreadCount is always derived from Items
func (s State) UnreadCount() int {
	return CountUnread(s.Items)
}

// HasMore reports whether another page can be loaded
func (s State) HasMore() bool {
	return s.Page.HasMore()
}

// Store mirrors the user's notifications page by page
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	limit int
	log   logrus.FieldLogger
}

// NewStore creates the notification store
func NewStore(api API, deps store.Deps, limit int) *Store {
	deps = deps.WithDefaults()
	if limit < 1 {
		limit = DefaultPageSize
	}
	return &Store{
		state: store.New(State{}),
		api:   api,
		deps:  deps,
		limit: limit,
		log:   deps.Logger.WithField("store", "notification"),
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

// UnreadCount counts unread notifications in the cache
func (s *Store) UnreadCount() int {
	return s.state.Snapshot().UnreadCount()
}

// Load is the hook entry point: it fetches the first page
func (s *Store) Load(ctx context.Context) error {
	return s.Fetch(ctx, 1)
}

// Reset empties the cache and drops in-flight fetches
func (s *Store) Reset() {
	s.state.Reset()
}

// Fetch loads page. Page 1 replaces the cache and invalidates any fetch still
// in flight; later pages are merged by id. Without a token it returns
// immediately.
func (s *Store) Fetch(ctx context.Context, page int) error {
	if !s.deps.Authenticated() {
		return nil
	}
	if page < 1 {
		page = 1
	}

	var epoch store.Epoch
	if page == 1 {
		epoch = s.state.Begin()
	} else {
		epoch = s.state.Epoch()
	}
	s.state.Commit(epoch, func(st State) State {
		st.Loading = true
		return st
	})

	res, err := s.api.List(ctx, page, s.limit)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Loading = false
			return st
		})
		s.log.WithError(err).WithField("page", page).Warn("Failed to fetch notifications")
		toast.Error(s.deps.Notifier, "Could not load notifications: %s", apiclient.Message(err))
		return fmt.Errorf("fetch notifications page %d: %w", page, err)
	}

	applied := s.state.Commit(epoch, func(st State) State {
		st.Items = store.Apply[Notification, string](st.Items, res.Items, page)
		st.Page = store.Page{
			Number:     res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		}
		if st.Page.Number < 1 {
			st.Page.Number = page
		}
		st.Loading = false
		st.Loaded = true
		return st
	})
	if !applied {
		s.log.WithField("page", page).Debug("Dropped stale notification page")
	}
	return nil
}

// LoadMore fetches the page after the last one loaded, if there is one
func (s *Store) LoadMore(ctx context.Context) error {
	st := s.state.Snapshot()
	if !st.HasMore() || st.Loading {
		return nil
	}
	return s.Fetch(ctx, st.Page.Next())
}

// MarkRead flags one notification as read optimistically
func (s *Store) MarkRead(ctx context.Context, id string) error {
	current, _, ok := store.FindByID(s.state.Snapshot().Items, id)
	if !ok {
		return ErrNotFound
	}
	if current.IsRead {
		return nil
	}

	epoch := s.state.Epoch()
	s.setRead(epoch, []string{id}, true)

	if err := s.api.MarkRead(ctx, id); err != nil {
		s.setRead(epoch, []string{id}, false)
		s.log.WithError(err).WithFields(logrus.Fields{"op": "mark_read", "id": id}).Warn("Mark read failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not mark notification as read: %s", apiclient.Message(err))
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every cached notification as read. On failure exactly the
// notifications it changed go back to unread.
func (s *Store) MarkAllRead(ctx context.Context) error {
	var changed []string
	for _, n := range s.state.Snapshot().Items {
		if !n.IsRead {
			changed = append(changed, n.ID)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	epoch := s.state.Epoch()
	s.setRead(epoch, changed, true)

	if err := s.api.MarkAllRead(ctx); err != nil {
		s.setRead(epoch, changed, false)
		s.log.WithError(err).WithField("op", "mark_all_read").Warn("Mark all read failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not mark notifications as read: %s", apiclient.Message(err))
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	toast.Success(s.deps.Notifier, "All notifications marked as read")
	return nil
}

// Remove deletes a notification optimistically and re-inserts it on failure
func (s *Store) Remove(ctx context.Context, id string) error {
	var (
		removed Notification
		index   int
		ok      bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Items, removed, index, ok = store.RemoveByID(st.Items, id)
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
			st.Items = store.InsertAt[Notification, string](st.Items, index, removed)
			st.Page.Total++
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "remove", "id": id}).Warn("Notification delete failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not delete notification: %s", apiclient.Message(err))
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// setRead is a no-op once the store was reset after epoch
func (s *Store) setRead(epoch store.Epoch, ids []string, read bool) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.state.Commit(epoch, func(st State) State {
		items := make([]Notification, len(st.Items))
		for i, n := range st.Items {
			if _, ok := set[n.ID]; ok {
				n.IsRead = read
			}
			items[i] = n
		}
		st.Items = items
		return st
	})
}
