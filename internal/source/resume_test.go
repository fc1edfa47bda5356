package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackOff() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }

func recv(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "feed closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change")
		return Change{}
	}
}

func TestResume_RedialsAfterDrop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dials atomic.Int32
	dial := func(ctx context.Context) (Feed, error) {
		n := dials.Add(1)
		if n == 2 {
			return nil, errors.New("connection refused")
		}
		return func(ctx context.Context, out chan<- Change) error {
			out <- Change{Type: Update, Table: "shipments", Row: Row{"id": n}}
			if n == 1 {
				return errors.New("socket closed")
			}
			<-ctx.Done()
			return ctx.Err()
		}, nil
	}

	ch, err := Resume(ctx, "shipments", fastBackOff, dial)
	require.NoError(t, err)

	assert.Equal(t, "1", recv(t, ch).ID())
	lost := recv(t, ch)
	assert.Equal(t, Interrupted, lost.Type)
	assert.EqualError(t, lost.Err, "socket closed")
	assert.Equal(t, Resync, recv(t, ch).Type)
	assert.Equal(t, "3", recv(t, ch).ID())
	assert.Equal(t, int32(3), dials.Load())

	cancel()
	for range ch {
	}
}

func TestResume_FirstDialError(t *testing.T) {
	_, err := Resume(context.Background(), "shipments", fastBackOff, func(context.Context) (Feed, error) {
		return nil, errors.New("no route to host")
	})
	assert.EqualError(t, err, "no route to host")
}

func TestResume_ClosesWhenBackOffGivesUp(t *testing.T) {
	first := true
	dial := func(context.Context) (Feed, error) {
		if !first {
			return nil, errors.New("still down")
		}
		first = false
		return func(context.Context, chan<- Change) error { return errors.New("reset") }, nil
	}
	limited := func() backoff.BackOff { return backoff.WithMaxRetries(fastBackOff(), 2) }

	ch, err := Resume(context.Background(), "shipments", limited, dial)
	require.NoError(t, err)
	assert.Equal(t, Interrupted, recv(t, ch).Type)

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("feed not closed")
	}
}
