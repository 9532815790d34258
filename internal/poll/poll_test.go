package poll

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symonectl/internal/api"
	"symonectl/internal/apitest"
	"symonectl/internal/data"
	"symonectl/internal/logging"
	"symonectl/internal/query"
	"symonectl/internal/session"
	"symonectl/internal/state"
)

func TestPollerRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	p := &Poller{Interval: 5 * time.Millisecond, Fn: func(context.Context) error {
		calls.Add(1)
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load(), "no ticks after cancel")
}

func TestPollerZeroIntervalUsesDefault(t *testing.T) {
	var calls atomic.Int32
	p := &Poller{Fn: func(context.Context) error {
		calls.Add(1)
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollerStatusTransitions(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	var mu sync.Mutex
	var seen []Status
	p := &Poller{
		Interval: 5 * time.Millisecond,
		Fn: func(context.Context) error {
			if fail.Load() {
				return errors.New("unreachable")
			}
			return nil
		},
		OnStatus: func(s Status, _ error) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		},
	}
	s, _ := p.Status()
	assert.Equal(t, StatusConnecting, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { s, _ := p.Status(); return s == StatusDisconnected }, time.Second, time.Millisecond)
	fail.Store(false)
	require.Eventually(t, func() bool { s, _ := p.Status(); return s == StatusConnected }, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusDisconnected, StatusConnected}, seen, "status reported on change only")
}

func newService(t *testing.T) (*data.Service, *apitest.Backend) {
	t.Helper()
	be := apitest.New(t)
	sess := session.NewManager(state.NewMemory(), session.RoleUser, logging.Discard())
	require.NoError(t, sess.SetSession(context.Background(), apitest.UserToken, session.Profile{"id": "u-1"}))
	return data.New(api.NewClient(be.URL(), sess, logging.Discard()), query.New(), logging.Discard()), be
}

func TestUnreadFeed(t *testing.T) {
	svc, be := newService(t)
	be.Notifications = []api.Notification{{ID: "1"}, {ID: "2", Read: true}, {ID: "3"}}

	counts := make(chan int, 4)
	p := Unread(svc, 5*time.Millisecond, func(n int) { counts <- n }, nil, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	select {
	case n := <-counts:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("no count reported")
	}
	n, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestActivityFeedDisconnected(t *testing.T) {
	svc, be := newService(t)
	be.Fail(http.MethodGet, "/auth/dashboard/activity", http.StatusBadGateway, "upstream down")

	statuses := make(chan Status, 4)
	p := Activity(svc, 5*time.Millisecond, 20, nil, func(s Status, _ error) { statuses <- s }, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	select {
	case s := <-statuses:
		assert.Equal(t, StatusDisconnected, s)
	case <-time.After(time.Second):
		t.Fatal("no status reported")
	}
}

type fakeHealth struct {
	mu   sync.Mutex
	errs []error
}

func (f *fakeHealth) Health(context.Context) (api.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) == 0 {
		return api.Health{Status: "healthy"}, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return api.Health{}, err
}

func TestWaitHealthy(t *testing.T) {
	maint := &api.Error{Status: http.StatusServiceUnavailable, Message: "maintenance"}
	f := &fakeHealth{errs: []error{maint, maint}}
	checks := 0
	h, err := WaitHealthy(context.Background(), f, time.Millisecond, func(error) { checks++ })
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 3, checks)

	f = &fakeHealth{errs: []error{&api.Error{Status: 500, Message: "boom"}}}
	_, err = WaitHealthy(context.Background(), f, time.Millisecond, nil)
	assert.Error(t, err)

	f = &fakeHealth{errs: []error{maint, maint, maint, maint, maint, maint, maint, maint}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
	defer cancel()
	_, err = WaitHealthy(ctx, f, 10*time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
