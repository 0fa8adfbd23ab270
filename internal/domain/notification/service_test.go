package notification

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

type stubAPI struct {
	mu         sync.Mutex
	pages      map[int][]Notification
	totalPages int
	listErr    error
	listCalls  int
	// gate, when set, blocks List for the given page until closed
	gate       map[int]chan struct{}
	markErr    error
	markAllErr error
	deleteErr  error
	// inFlight runs while a mutation is on the wire
	inFlight func()
}

func (s *stubAPI) wire() {
	if s.inFlight != nil {
		s.inFlight()
	}
}

func (s *stubAPI) List(_ context.Context, page, limit int) (*ListResult, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.gate[page]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &ListResult{Items: s.pages[page], Page: page, Limit: limit, TotalPages: s.totalPages}, nil
}

func (s *stubAPI) MarkRead(_ context.Context, _ string) error { s.wire(); return s.markErr }
func (s *stubAPI) MarkAllRead(_ context.Context) error        { s.wire(); return s.markAllErr }
func (s *stubAPI) Delete(_ context.Context, _ string) error   { s.wire(); return s.deleteErr }

func n(id string, read bool) Notification {
	return Notification{ID: id, Title: "t" + id, Type: TypeSystem, IsRead: read, CreatedAt: time.Unix(0, 0)}
}

func authed(rec *toast.Recorder) store.Deps {
	deps := store.Deps{Tokens: store.StaticToken("token")}
	if rec != nil {
		deps.Notifier = rec
	}
	return deps
}

func ids(items []Notification) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestFetch_WithoutTokenMakesNoCall(t *testing.T) {
	api := &stubAPI{}
	s := NewStore(api, store.Deps{}, 10)

	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.LoadMore(context.Background()))

	assert.Equal(t, 0, api.listCalls)
}

func TestFetch_PaginationReplacesAndAppends(t *testing.T) {
	api := &stubAPI{totalPages: 2, pages: map[int][]Notification{
		1: {n("1", false), n("2", true)},
		2: {n("2", false), n("3", false)},
	}}
	s := NewStore(api, authed(nil), 2)
	ctx := context.Background()

	require.NoError(t, s.Fetch(ctx, 1))
	assert.True(t, s.Snapshot().HasMore())

	require.NoError(t, s.LoadMore(ctx))
	st := s.Snapshot()
	assert.Equal(t, []string{"1", "2", "3"}, ids(st.Items))
	assert.False(t, st.Items[1].IsRead, "the later page wins for a duplicated id")
	assert.False(t, st.HasMore())
	assert.Equal(t, 3, s.UnreadCount())

	require.NoError(t, s.LoadMore(ctx))
	assert.Equal(t, 2, api.listCalls, "no fetch past the last page")

	require.NoError(t, s.Fetch(ctx, 1))
	assert.Equal(t, []string{"1", "2"}, ids(s.Snapshot().Items), "page 1 replaces the collection")
}

func TestFetch_OverlappingPagesNeverDuplicate(t *testing.T) {
	api := &stubAPI{totalPages: 3, pages: map[int][]Notification{
		1: {n("1", false), n("2", false)},
		2: {n("2", false), n("3", false)},
		3: {n("3", false), n("4", false)},
	}}
	s := NewStore(api, authed(nil), 2)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, 1))

	var wg sync.WaitGroup
	for _, page := range []int{2, 3, 2, 3} {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			_ = s.Fetch(ctx, p)
		}(page)
	}
	wg.Wait()

	got := ids(s.Snapshot().Items)
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, got)
	assert.Len(t, got, 4)
}

func TestFetch_StaleAppendDroppedAfterRefresh(t *testing.T) {
	release := make(chan struct{})
	api := &stubAPI{totalPages: 2, pages: map[int][]Notification{
		1: {n("1", false)},
		2: {n("old", false)},
	}}
	s := NewStore(api, authed(nil), 1)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, 1))

	api.mu.Lock()
	api.gate = map[int]chan struct{}{2: release}
	api.mu.Unlock()

	done := make(chan error)
	go func() { done <- s.Fetch(ctx, 2) }()

	// wait until the page 2 request is in flight
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.listCalls == 2
	}, time.Second, time.Millisecond)

	api.mu.Lock()
	api.pages[1] = []Notification{n("fresh", false)}
	api.mu.Unlock()
	require.NoError(t, s.Fetch(ctx, 1))

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"fresh"}, ids(s.Snapshot().Items))
}

func TestFetch_FailureLeavesStateUntouched(t *testing.T) {
	api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: {n("1", false)}}}
	rec := &toast.Recorder{}
	s := NewStore(api, authed(rec), 10)
	require.NoError(t, s.Load(context.Background()))

	api.listErr = &apiclient.Error{Kind: apiclient.KindServer, StatusCode: 503, Message: "down"}
	require.Error(t, s.Load(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, []string{"1"}, ids(st.Items))
	assert.False(t, st.Loading)
	assert.Equal(t, 1, rec.Count(toast.LevelError))
}

func TestMarkRead_RollsBackOnFailure(t *testing.T) {
	api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: {n("1", false), n("2", false)}}}
	s := NewStore(api, authed(nil), 10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.MarkRead(ctx, "1"))
	assert.Equal(t, 1, s.UnreadCount())

	api.markErr = &apiclient.Error{Kind: apiclient.KindTransport}
	require.Error(t, s.MarkRead(ctx, "2"))
	assert.Equal(t, 1, s.UnreadCount())

	assert.ErrorIs(t, s.MarkRead(ctx, "nope"), ErrNotFound)
}

func TestMarkAllRead_RollsBackOnlyWhatItChanged(t *testing.T) {
	api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: {n("1", true), n("2", false), n("3", false)}}}
	s := NewStore(api, authed(nil), 10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	api.markAllErr = &apiclient.Error{Kind: apiclient.KindTransport}
	require.Error(t, s.MarkAllRead(ctx))

	st := s.Snapshot()
	assert.True(t, st.Items[0].IsRead)
	assert.Equal(t, 2, st.UnreadCount())

	api.markAllErr = nil
	require.NoError(t, s.MarkAllRead(ctx))
	assert.Equal(t, 0, s.UnreadCount())
}

func TestRemove_RollbackRestoresPosition(t *testing.T) {
	api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: {n("1", false), n("2", false), n("3", true)}}}
	s := NewStore(api, authed(nil), 10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	api.deleteErr = &apiclient.Error{Kind: apiclient.KindServer}
	require.Error(t, s.Remove(ctx, "2"))
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.Snapshot().Items))

	api.deleteErr = nil
	require.NoError(t, s.Remove(ctx, "2"))
	assert.Equal(t, []string{"1", "3"}, ids(s.Snapshot().Items))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestRollback_AfterResetLeavesStoreEmpty(t *testing.T) {
	cases := []struct {
		name   string
		fail   func(*stubAPI)
		mutate func(context.Context, *Store) error
	}{
		{"remove", func(a *stubAPI) { a.deleteErr = &apiclient.Error{Kind: apiclient.KindUnauthorized} }, func(ctx context.Context, s *Store) error {
			return s.Remove(ctx, "2")
		}},
		{"mark read", func(a *stubAPI) { a.markErr = &apiclient.Error{Kind: apiclient.KindUnauthorized} }, func(ctx context.Context, s *Store) error {
			return s.MarkRead(ctx, "1")
		}},
		{"mark all read", func(a *stubAPI) { a.markAllErr = &apiclient.Error{Kind: apiclient.KindUnauthorized} }, func(ctx context.Context, s *Store) error {
			return s.MarkAllRead(ctx)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: {n("1", false), n("2", false)}}}
			s := NewStore(api, authed(nil), 10)
			ctx := context.Background()
			require.NoError(t, s.Load(ctx))

			tc.fail(api)
			api.inFlight = s.Reset
			require.Error(t, tc.mutate(ctx, s))

			st := s.Snapshot()
			assert.Empty(t, st.Items)
			assert.Zero(t, st.Page.Total)
			assert.Equal(t, 0, s.UnreadCount())
		})
	}
}

// Property: after any sequence of mutations, successful or not, the unread
// count equals the number of cached unread notifications.
func TestUnreadCount_MatchesCacheUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	page := make([]Notification, 0, 30)
	for i := 0; i < 30; i++ {
		page = append(page, n(fmt.Sprint(i), rng.Intn(2) == 0))
	}
	api := &stubAPI{totalPages: 1, pages: map[int][]Notification{1: page}}
	s := NewStore(api, authed(nil), 50)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	failure := &apiclient.Error{Kind: apiclient.KindTransport}
	for step := 0; step < 200; step++ {
		fail := rng.Intn(3) == 0
		api.markErr, api.markAllErr, api.deleteErr = nil, nil, nil
		if fail {
			api.markErr, api.markAllErr, api.deleteErr = failure, failure, failure
		}

		id := fmt.Sprint(rng.Intn(30))
		switch rng.Intn(4) {
		case 0, 1:
			_ = s.MarkRead(ctx, id)
		case 2:
			_ = s.Remove(ctx, id)
		case 3:
			if rng.Intn(5) == 0 {
				_ = s.MarkAllRead(ctx)
			}
		}

		st := s.Snapshot()
		expected := 0
		for _, item := range st.Items {
			if !item.IsRead {
				expected++
			}
		}
		require.Equal(t, expected, st.UnreadCount(), "step %d", step)
	}
}
