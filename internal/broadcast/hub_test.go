package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appErrors "uld-tracker/pkg/errors"
)

func recv(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
	}
}

func TestHub_NoBacklogReplay(t *testing.T) {
	hub := NewHub(8, zaptest.NewLogger(t))

	hub.Publish(KindUnitUpdate, "before")

	sub, err := hub.Subscribe()
	require.NoError(t, err)
	assertNoEvent(t, sub)

	hub.Publish(KindNewAlert, "after")
	ev := recv(t, sub)
	assert.Equal(t, KindNewAlert, ev.Kind)
	assert.Equal(t, "after", ev.Payload)
}

func TestHub_FanOutInOrder(t *testing.T) {
	hub := NewHub(8, nil)

	a, err := hub.Subscribe()
	require.NoError(t, err)
	b, err := hub.Subscribe()
	require.NoError(t, err)

	hub.Publish(KindNewAlert, 1)
	hub.Publish(KindUnitUpdate, 2)
	hub.Publish(KindAnalyticsUpdate, 3)

	for _, sub := range []*Subscription{a, b} {
		first, second, third := recv(t, sub), recv(t, sub), recv(t, sub)
		assert.Equal(t, []Kind{KindNewAlert, KindUnitUpdate, KindAnalyticsUpdate},
			[]Kind{first.Kind, second.Kind, third.Kind})
		assert.Less(t, first.Seq, second.Seq)
		assert.Less(t, second.Seq, third.Seq)
	}

	stats := hub.Stats()
	assert.Equal(t, 2, stats.Subscribers)
	assert.EqualValues(t, 3, stats.Published)
	assert.EqualValues(t, 6, stats.Delivered)
}

func TestHub_SlowSubscriberIsDroppedOthersStillReceive(t *testing.T) {
	hub := NewHub(8, zaptest.NewLogger(t))

	slow, err := hub.SubscribeWithBuffer(1)
	require.NoError(t, err)
	fast, err := hub.SubscribeWithBuffer(8)
	require.NoError(t, err)

	hub.Publish(KindUnitUpdate, "n-1") // fills slow's buffer
	hub.Publish(KindUnitUpdate, "n")   // slow is dropped here
	hub.Publish(KindUnitUpdate, "n+1")

	assert.Equal(t, "n-1", recv(t, fast).Payload)
	assert.Equal(t, "n", recv(t, fast).Payload)
	assert.Equal(t, "n+1", recv(t, fast).Payload)

	assert.Equal(t, "n-1", recv(t, slow).Payload)
	_, ok := <-slow.Events()
	assert.False(t, ok, "dropped subscriber channel must be closed")

	stats := hub.Stats()
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Subscribers)

	slow.Close() // already dropped; must not panic
}

func TestHub_CloseDuringPublishIsSafe(t *testing.T) {
	hub := NewHub(4, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, err := hub.Subscribe()
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-sub.Events()
			sub.Close()
		}()
	}

	for i := 0; i < 50; i++ {
		hub.Publish(KindUnitUpdate, i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Stats().Subscribers)
}

func TestHub_ClosedHub(t *testing.T) {
	hub := NewHub(4, nil)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	_, err = hub.Subscribe()
	assert.ErrorIs(t, err, appErrors.ErrHubClosed)

	assert.NotPanics(t, func() { hub.Publish(KindUnitUpdate, "late") })
	sub.Close()
}

type countingObserver struct {
	mu        sync.Mutex
	published map[Kind]int
	dropped   int
	current   int
}

func (o *countingObserver) EventPublished(k Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published[k]++
}

func (o *countingObserver) SubscriberDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func (o *countingObserver) SubscribersChanged(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = n
}

func TestHub_Observer(t *testing.T) {
	obs := &countingObserver{published: map[Kind]int{}}
	hub := NewHub(1, nil)
	hub.SetObserver(obs)

	sub, err := hub.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, 1, obs.current)

	hub.Publish(KindNewAlert, nil)
	hub.Publish(KindNewAlert, nil)

	assert.Equal(t, 2, obs.published[KindNewAlert])
	assert.Equal(t, 1, obs.dropped)
	assert.Equal(t, 0, obs.current)
	sub.Close()
}

func TestForward_FailingSubscriberDoesNotAffectOthers(t *testing.T) {
	hub := NewHub(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panicky, err := hub.Subscribe()
	require.NoError(t, err)
	erroring, err := hub.Subscribe()
	require.NoError(t, err)
	healthy, err := hub.Subscribe()
	require.NoError(t, err)

	panicDone := make(chan error, 1)
	go func() {
		panicDone <- Forward(ctx, panicky, func(ev Event) error {
			if ev.Payload == "n" {
				panic("renderer crashed")
			}
			return nil
		})
	}()

	errDone := make(chan error, 1)
	go func() {
		errDone <- Forward(ctx, erroring, func(Event) error {
			return errors.New("socket reset")
		})
	}()

	hub.Publish(KindUnitUpdate, "n")

	select {
	case err := <-panicDone:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	case <-time.After(time.Second):
		t.Fatal("panicking subscriber did not stop")
	}
	select {
	case err := <-errDone:
		assert.ErrorContains(t, err, "socket reset")
	case <-time.After(time.Second):
		t.Fatal("erroring subscriber did not stop")
	}

	hub.Publish(KindUnitUpdate, "n+1")

	assert.Equal(t, "n", recv(t, healthy).Payload)
	assert.Equal(t, "n+1", recv(t, healthy).Payload)
	assert.Eventually(t, func() bool { return hub.Stats().Subscribers == 1 }, time.Second, 10*time.Millisecond)
}

func TestForward_EndsWhenContextCancelled(t *testing.T) {
	hub := NewHub(8, nil)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = Forward(ctx, sub, func(Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, hub.Stats().Subscribers)
}

func TestForward_ReportsWhySubscriptionEnded(t *testing.T) {
	t.Run("dropped", func(t *testing.T) {
		hub := NewHub(1, nil)
		sub, err := hub.Subscribe()
		require.NoError(t, err)
		hub.Publish(KindUnitUpdate, nil)
		hub.Publish(KindUnitUpdate, nil)

		err = Forward(context.Background(), sub, func(Event) error { return nil })
		assert.ErrorIs(t, err, appErrors.ErrSubscriberGone)
	})

	t.Run("hub closed", func(t *testing.T) {
		hub := NewHub(8, nil)
		sub, err := hub.Subscribe()
		require.NoError(t, err)
		hub.Close()

		err = Forward(context.Background(), sub, func(Event) error { return nil })
		assert.ErrorIs(t, err, appErrors.ErrHubClosed)
	})
}

func TestSubscription_Err(t *testing.T) {
	hub := NewHub(1, nil)

	own, err := hub.Subscribe()
	require.NoError(t, err)
	own.Close()
	assert.NoError(t, own.Err())

	slow, err := hub.Subscribe()
	require.NoError(t, err)
	hub.Publish(KindUnitUpdate, nil)
	hub.Publish(KindUnitUpdate, nil)
	assert.ErrorIs(t, slow.Err(), appErrors.ErrSubscriberGone)

	live, err := hub.Subscribe()
	require.NoError(t, err)
	hub.Close()
	assert.ErrorIs(t, live.Err(), appErrors.ErrHubClosed)
}
