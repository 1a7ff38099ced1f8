package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

func TestNewRejectsBadSpec(t *testing.T) {
	job := func(context.Context, bool) (settlement.Result, error) { return settlement.Result{}, nil }
	_, err := New(job, WithSpec("not a cron"))
	require.Error(t, err)

	_, err = New(job, WithTask("expire", "61 * * * *", func(context.Context) (int, error) { return 0, nil }))
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)
}

func TestRunNowPassesForce(t *testing.T) {
	var gotForce bool
	s, err := New(func(_ context.Context, force bool) (settlement.Result, error) {
		gotForce = force
		return settlement.Result{Processed: 3}, nil
	})
	require.NoError(t, err)

	res, err := s.RunNow(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, gotForce)
	assert.Equal(t, 3, res.Processed)
}

func TestRunNowSerializesPasses(t *testing.T) {
	var inFlight, maxInFlight int32
	s, err := New(func(context.Context, bool) (settlement.Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return settlement.Result{}, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RunNow(context.Background(), false)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestScheduledRunFires(t *testing.T) {
	fired := make(chan bool, 4)
	tasks := make(chan struct{}, 4)
	s, err := New(func(_ context.Context, force bool) (settlement.Result, error) {
		fired <- force
		return settlement.Result{}, nil
	},
		WithSpec("@every 1s"),
		WithTask("expire", "@every 1s", func(context.Context) (int, error) {
			tasks <- struct{}{}
			return 0, nil
		}),
	)
	require.NoError(t, err)
	s.Start()
	defer func() { require.NoError(t, s.Stop(context.Background())) }()

	assert.False(t, s.Next().IsZero())
	select {
	case force := <-fired:
		assert.False(t, force, "scheduled passes never force")
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled settlement did not fire")
	}
	select {
	case <-tasks:
	case <-time.After(3 * time.Second):
		t.Fatal("housekeeping task did not fire")
	}
}

func TestStopCancelsScheduledContext(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	s, err := New(func(ctx context.Context, _ bool) (settlement.Result, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return settlement.Result{}, ctx.Err()
	}, WithSpec("@every 1s"))
	require.NoError(t, err)
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled settlement did not fire")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
