// internal/domain/review/service.go
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

var (
	// ErrNotFound is returned for ids that are not cached
	ErrNotFound = errors.New("review not found")
	// ErrEditLimitReached is returned once a review has used all its edits
	ErrEditLimitReached = fmt.Errorf("a review can be edited at most %d times", MaxEdits)
	// ErrAlreadyReplied is returned when the review already has a reply
	ErrAlreadyReplied = errors.New("review already has a reply")
	// ErrInvalidRating is returned for ratings outside 1 to 5
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrEmptyReply is returned for a blank reply
	ErrEmptyReply = errors.New("reply cannot be empty")
)

// State is the review store snapshot
type State struct {
	Reviews []Review
	Filter  Filter
	Page    store.Page
	Loading bool
	Loaded  bool
}

// Summary is recomputed from the cached reviews
func (s State) Summary() Summary {
	return Summarize(s.Reviews)
}

// Store mirrors a list of reviews: a product's, a store's or the user's own
type Store struct {
	state *store.Store[State]
	api   API
	deps  store.Deps
	limit int
	scope Filter
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewStore creates the review store. scope is the filter Load uses.
func NewStore(api API, deps store.Deps, scope Filter, limit int) *Store {
	deps = deps.WithDefaults()
	if limit < 1 {
		limit = 10
	}
	return &Store{
		state: store.New(State{}),
		api:   api,
		deps:  deps,
		limit: limit,
		scope: scope,
		log:   deps.Logger.WithField("store", "review"),
		now:   time.Now,
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

// Review returns the cached review with id
func (s *Store) Review(id string) (Review, bool) {
	r, _, ok := store.FindByID(s.state.Snapshot().Reviews, id)
	return r, ok
}

// Load is the hook entry point: it fetches page 1 of the store's scope
func (s *Store) Load(ctx context.Context) error {
	f := s.scope
	f.Page = 1
	return s.Fetch(ctx, f)
}

// Reset empties the cache and drops in-flight fetches
func (s *Store) Reset() {
	s.state.Reset()
}

// Fetch loads a page of reviews. Page 1 or a new scope replaces the cache;
// later pages merge by id.
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

	replace := f.Page == 1 || !f.sameScope(s.state.Snapshot().Filter)
	var epoch store.Epoch
	if replace {
		f.Page = 1
		epoch = s.state.Begin()
	} else {
		epoch = s.state.Epoch()
	}
	s.state.Commit(epoch, func(st State) State {
		st.Loading = true
		return st
	})

	res, err := s.api.List(ctx, f)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Loading = false
			return st
		})
		s.log.WithError(err).WithField("page", f.Page).Warn("Failed to fetch reviews")
		toast.Error(s.deps.Notifier, "Could not load reviews: %s", apiclient.Message(err))
		return fmt.Errorf("fetch reviews: %w", err)
	}

	s.state.Commit(epoch, func(st State) State {
		st.Reviews = store.Apply[Review, string](st.Reviews, res.Reviews, f.Page)
		st.Filter = f
		st.Page = store.Page{Number: res.Page, Limit: f.Limit, Total: res.Total, TotalPages: res.TotalPages}
		if st.Page.Number < 1 {
			st.Page.Number = f.Page
		}
		st.Loading = false
		st.Loaded = true
		return st
	})
	return nil
}

// LoadMore fetches the next page of the current scope
func (s *Store) LoadMore(ctx context.Context) error {
	st := s.state.Snapshot()
	if !st.Page.HasMore() || st.Loading {
		return nil
	}
	f := st.Filter
	f.Page = st.Page.Next()
	return s.Fetch(ctx, f)
}

// Edit rewrites a review optimistically and counts the edit locally. It
// refuses once the review has used MaxEdits edits.
func (s *Store) Edit(ctx context.Context, id string, req EditRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	req.Comment = strings.TrimSpace(req.Comment)

	current, ok := s.Review(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !current.CanEdit() {
		return nil, ErrEditLimitReached
	}

	var (
		prev    Review
		applied bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Reviews, prev, applied = store.UpdateByID(st.Reviews, id, func(r Review) Review {
			if !r.CanEdit() {
				return r
			}
			return req.applyTo(r)
		})
		return st
	})
	if !applied {
		return nil, ErrNotFound
	}
	if !prev.CanEdit() {
		return nil, ErrEditLimitReached
	}

	updated, err := s.api.Edit(ctx, id, req)
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Reviews, _, _ = store.UpdateByID(st.Reviews, id, func(r Review) Review {
				if !req.wrote(prev, r) {
					return r
				}
				return prev
			})
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "edit", "id": id}).Warn("Review edit failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not update review: %s", apiclient.Message(err))
		return nil, fmt.Errorf("edit review: %w", err)
	}

	result := req.applyTo(prev)
	if updated != nil {
		result = *updated
		s.state.Commit(epoch, func(st State) State {
			st.Reviews, _ = store.ReplaceByID[Review, string](st.Reviews, result)
			return st
		})
	}
	if left := result.EditsLeft(); left > 0 {
		toast.Success(s.deps.Notifier, "Review updated, %d edit(s) left", left)
	} else {
		toast.Success(s.deps.Notifier, "Review updated, no edits left")
	}
	return &result, nil
}

// Reply answers a review as its store owner. The reply shows immediately and
// is withdrawn if the server refuses it.
func (s *Store) Reply(ctx context.Context, id, text string) (*Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReply
	}

	current, ok := s.Review(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !current.CanReply() {
		return nil, ErrAlreadyReplied
	}

	written := &Reply{Text: text, CreatedAt: s.now()}
	var (
		prev    Review
		applied bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Reviews, prev, applied = store.UpdateByID(st.Reviews, id, func(r Review) Review {
			if !r.CanReply() {
				return r
			}
			r.Reply = written
			return r
		})
		return st
	})
	if !applied {
		return nil, ErrNotFound
	}
	if !prev.CanReply() {
		return nil, ErrAlreadyReplied
	}

	updated, err := s.api.Reply(ctx, id, ReplyRequest{Reply: text})
	if err != nil {
		s.state.Commit(epoch, func(st State) State {
			st.Reviews, _, _ = store.UpdateByID(st.Reviews, id, func(r Review) Review {
				if r.Reply != written {
					return r
				}
				r.Reply = nil
				return r
			})
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "reply", "id": id}).Warn("Review reply failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not post reply: %s", apiclient.Message(err))
		return nil, fmt.Errorf("reply to review: %w", err)
	}

	result := prev
	result.Reply = written
	if updated != nil {
		result = *updated
		s.state.Commit(epoch, func(st State) State {
			st.Reviews, _ = store.ReplaceByID[Review, string](st.Reviews, result)
			return st
		})
	}
	toast.Success(s.deps.Notifier, "Reply posted")
	return &result, nil
}

// Remove deletes a review optimistically and re-inserts it on failure
func (s *Store) Remove(ctx context.Context, id string) error {
	var (
		removed Review
		index   int
		ok      bool
	)
	epoch := s.state.Epoch()
	s.state.Update(func(st State) State {
		st.Reviews, removed, index, ok = store.RemoveByID(st.Reviews, id)
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
			st.Reviews = store.InsertAt[Review, string](st.Reviews, index, removed)
			st.Page.Total++
			return st
		})
		s.log.WithError(err).WithFields(logrus.Fields{"op": "remove", "id": id}).Warn("Review delete failed, rolled back")
		toast.Error(s.deps.Notifier, "Could not delete review: %s", apiclient.Message(err))
		return fmt.Errorf("delete review: %w", err)
	}

	toast.Success(s.deps.Notifier, "Review deleted")
	return nil
}
