package orderfeed_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ekanban/internal/adapters/out/postgres/orderfeed"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeListener struct {
	notify    chan *pq.Notification
	onEvent   pq.EventCallbackType
	listenErr error

	mu       sync.Mutex
	channels []string
	closed   int
}

func (l *fakeListener) Listen(channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels = append(l.channels, channel)
	return l.listenErr
}

func (l *fakeListener) NotificationChannel() <-chan *pq.Notification { return l.notify }
func (l *fakeListener) Ping() error                                  { return nil }

func (l *fakeListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
	return nil
}

type MockReader struct{ mock.Mock }

func (m *MockReader) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type snapshot struct {
	orders []*order.Order
	err    error
}

func newFeed(l *fakeListener, r orderfeed.ActiveOrdersReader) *orderfeed.Feed {
	factory := func(onEvent pq.EventCallbackType) orderfeed.Listener {
		l.onEvent = onEvent
		return l
	}
	return orderfeed.NewFeedWithListener("active_orders_changed", r, factory, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func collect() (ports.SnapshotFunc, <-chan snapshot) {
	ch := make(chan snapshot, 16)
	return func(orders []*order.Order, err error) { ch <- snapshot{orders, err} }, ch
}

func next(t *testing.T, ch <-chan snapshot) snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return snapshot{}
	}
}

func TestFeed_InitialSnapshotBeforeReturn(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	reader := new(MockReader)
	reader.On("GetAllActive", mock.Anything).Return([]*order.Order{}, nil).Once()

	fn, ch := collect()
	unsubscribe, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)
	require.NoError(t, err)
	defer unsubscribe()

	require.Len(t, ch, 1)
	s := <-ch
	require.NoError(t, s.err)
	assert.Equal(t, []string{"active_orders_changed"}, l.channels)
}

func TestFeed_ReloadsOnNotification(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	reader := new(MockReader)
	reader.On("GetAllActive", mock.Anything).Return([]*order.Order{}, nil)

	fn, ch := collect()
	unsubscribe, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)
	require.NoError(t, err)
	defer unsubscribe()
	next(t, ch)

	l.notify <- &pq.Notification{Channel: "active_orders_changed", Extra: "INSERT"}

	s := next(t, ch)
	require.NoError(t, s.err)
}

func TestFeed_ReloadFailureIsSubscriptionError(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	reader := new(MockReader)
	reader.On("GetAllActive", mock.Anything).Return([]*order.Order{}, nil).Once()
	reader.On("GetAllActive", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	fn, ch := collect()
	unsubscribe, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)
	require.NoError(t, err)
	defer unsubscribe()
	next(t, ch)

	l.notify <- &pq.Notification{Channel: "active_orders_changed"}

	s := next(t, ch)
	require.ErrorIs(t, s.err, ports.ErrSubscription)
	assert.NotNil(t, s.orders, "last good snapshot is kept")
}

func TestFeed_DisconnectIsSubscriptionError(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	reader := new(MockReader)
	reader.On("GetAllActive", mock.Anything).Return([]*order.Order{}, nil)

	fn, ch := collect()
	unsubscribe, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)
	require.NoError(t, err)
	defer unsubscribe()
	next(t, ch)

	l.onEvent(pq.ListenerEventDisconnected, errors.New("EOF"))
	require.ErrorIs(t, next(t, ch).err, ports.ErrSubscription)

	l.notify <- nil
	require.NoError(t, next(t, ch).err)
}

func TestFeed_ListenError(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification), listenErr: errors.New("refused")}
	reader := new(MockReader)

	fn, ch := collect()
	_, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)

	require.ErrorIs(t, err, ports.ErrSubscription)
	assert.Empty(t, ch)
	assert.Equal(t, 1, l.closed)
	reader.AssertNotCalled(t, "GetAllActive", mock.Anything)
}

func TestFeed_UnsubscribeIsIdempotent(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	reader := new(MockReader)
	reader.On("GetAllActive", mock.Anything).Return([]*order.Order{}, nil).Once()

	fn, _ := collect()
	unsubscribe, err := newFeed(l, reader).SubscribeActiveOrders(t.Context(), fn)
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	assert.Equal(t, 1, l.closed)
}
