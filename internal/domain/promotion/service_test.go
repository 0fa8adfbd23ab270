package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
	"github.com/your-org/storefront-client/internal/pkg/toast"
	"github.com/your-org/storefront-client/internal/store"
)

type stubAPI struct {
	vouchers  []Voucher
	listErr   error
	listCalls int
	deleteErr error
	// inFlight runs while a delete is on the wire
	inFlight func()
}

func (s *stubAPI) List(_ context.Context, f Filter) (*ListResult, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &ListResult{Vouchers: s.vouchers, Page: f.Page, TotalPages: 1, Total: len(s.vouchers)}, nil
}

func (s *stubAPI) Delete(_ context.Context, _ string) error {
	if s.inFlight != nil {
		s.inFlight()
	}
	return s.deleteErr
}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func voucher(id string) Voucher {
	return Voucher{ID: id, Code: "CODE" + id, Type: TypeFixedAmount, Value: 500, StartsAt: now.Add(-time.Hour)}
}

func TestFetch_WithoutTokenMakesNoCall(t *testing.T) {
	api := &stubAPI{}
	require.NoError(t, NewStore(api, store.Deps{}, Filter{}, 10).Load(context.Background()))
	assert.Equal(t, 0, api.listCalls)
}

func TestFetch_FailureKeepsVouchers(t *testing.T) {
	api := &stubAPI{vouchers: []Voucher{voucher("1")}}
	rec := &toast.Recorder{}
	s := NewStore(api, store.Deps{Tokens: store.StaticToken("t"), Notifier: rec}, Filter{StoreID: "s1"}, 10)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "s1", s.Snapshot().Filter.StoreID)

	api.listErr = &apiclient.Error{Kind: apiclient.KindServer, StatusCode: 503, Message: "maintenance"}
	require.ErrorIs(t, s.Load(context.Background()), apiclient.ErrServer)
	assert.Len(t, s.Snapshot().Vouchers, 1)
	assert.Equal(t, 1, rec.Count(toast.LevelError))
}

func TestRemove_RollbackReinsertsAtIndex(t *testing.T) {
	api := &stubAPI{vouchers: []Voucher{voucher("1"), voucher("2"), voucher("3")}}
	s := NewStore(api, store.Deps{Tokens: store.StaticToken("t")}, Filter{}, 10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	api.deleteErr = &apiclient.Error{Kind: apiclient.KindNotFound, StatusCode: 404}
	require.ErrorIs(t, s.Remove(ctx, "3"), apiclient.ErrNotFound)
	v := s.Snapshot().Vouchers
	require.Len(t, v, 3)
	assert.Equal(t, "3", v[2].ID)

	api.deleteErr = nil
	require.NoError(t, s.Remove(ctx, "1"))
	assert.Equal(t, "2", s.Snapshot().Vouchers[0].ID)
	assert.ErrorIs(t, s.Remove(ctx, "1"), ErrNotFound)
}

func TestRemove_RollbackAfterResetLeavesStoreEmpty(t *testing.T) {
	api := &stubAPI{vouchers: []Voucher{voucher("1"), voucher("2")}}
	s := NewStore(api, store.Deps{Tokens: store.StaticToken("t")}, Filter{StoreID: "s1"}, 10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	api.deleteErr = &apiclient.Error{Kind: apiclient.KindUnauthorized, StatusCode: 401}
	api.inFlight = s.Reset
	require.ErrorIs(t, s.Remove(ctx, "1"), apiclient.ErrUnauthorized)

	st := s.Snapshot()
	assert.Empty(t, st.Vouchers)
	assert.Zero(t, st.Page.Total)
}

func TestVoucher_Discount(t *testing.T) {
	pct := Voucher{Type: TypePercentage, Value: 10, MinSpend: 199900, MaxDiscount: 14990, StartsAt: now.Add(-time.Hour)}

	_, err := pct.Discount(100000, now)
	assert.ErrorIs(t, err, ErrBelowMinSpend)

	amount, err := pct.Discount(200000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(14990), amount, "capped at max discount")

	amount, err = pct.Discount(120000+80000-1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(14990), amount)

	fixed := voucher("f")
	amount, err = fixed.Discount(300, now)
	require.NoError(t, err)
	assert.Equal(t, int64(300), amount, "never more than the subtotal")

	ended := now.Add(-time.Minute)
	fixed.EndsAt = &ended
	_, err = fixed.Discount(1000, now)
	assert.ErrorIs(t, err, ErrVoucherInactive)

	used := voucher("u")
	used.UsageLimit, used.UsedCount = 5, 5
	_, err = used.Discount(1000, now)
	assert.ErrorIs(t, err, ErrVoucherExhausted)
	assert.Equal(t, 0, used.Remaining())
	assert.Equal(t, -1, voucher("x").Remaining())

	ship := Voucher{Type: TypeFreeShipping, StartsAt: now.Add(-time.Hour)}
	amount, err = ship.Discount(1000, now)
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestState_ActiveCount(t *testing.T) {
	future := voucher("2")
	future.StartsAt = now.Add(time.Hour)
	used := voucher("3")
	used.UsageLimit, used.UsedCount = 1, 1

	st := State{Vouchers: []Voucher{voucher("1"), future, used}}
	assert.Equal(t, 1, st.ActiveCount(now))
	assert.Equal(t, "5.00 off", voucher("1").Describe())
	assert.Equal(t, "10% off", Voucher{Type: TypePercentage, Value: 10}.Describe())
}
