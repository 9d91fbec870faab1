package registry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestWrappedCountsCallsAndErrors(t *testing.T) {
	reg := New()
	boom := errors.New("boom")
	invocation := 0
	fn := func(tele.Context) error {
		invocation++
		if invocation == 2 {
			return boom
		}
		return nil
	}

	id, err := reg.Register(fn, Metadata{Name: "flaky", Type: TypeCommand, Command: "flaky"})
	require.NoError(t, err)
	h := reg.Get(id)
	wrapped := h.Wrapped()

	require.NoError(t, wrapped(nil))
	require.ErrorIs(t, wrapped(nil), boom)
	require.NoError(t, wrapped(nil))

	snap := h.Stats().Snapshot()
	assert.Equal(t, int64(3), snap.Calls)
	assert.Equal(t, int64(1), snap.Errors)
	assert.LessOrEqual(t, snap.Errors, snap.Calls)
	assert.False(t, snap.LastCalled.IsZero())
}

func TestWrappedUpdatesAverageOnSuccessOnly(t *testing.T) {
	reg := New()
	boom := errors.New("boom")

	id, err := reg.Register(func(tele.Context) error { return boom }, Metadata{
		Name: "fail", Type: TypeText,
	})
	require.NoError(t, err)
	h := reg.Get(id)

	require.Error(t, h.Wrapped()(nil))
	assert.Zero(t, h.Stats().Snapshot().AvgResponseTime)

	slowID, err := reg.Register(func(tele.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, Metadata{Name: "slow", Type: TypeText})
	require.NoError(t, err)
	slow := reg.Get(slowID)

	require.NoError(t, slow.Wrapped()(nil))
	assert.Greater(t, slow.Stats().Snapshot().AvgResponseTime, time.Duration(0))
}

func TestWrappedAccountsPanicAsError(t *testing.T) {
	reg := New()
	id, err := reg.Register(func(tele.Context) error { panic("explode") }, Metadata{
		Name: "panicky", Type: TypeText,
	})
	require.NoError(t, err)
	h := reg.Get(id)
	wrapped := h.Wrapped()

	assert.PanicsWithValue(t, "explode", func() { _ = wrapped(nil) })

	snap := h.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Calls)
	assert.Equal(t, int64(1), snap.Errors)
}

func TestWrappedConcurrentInvocations(t *testing.T) {
	reg := New()
	id, err := reg.Register(noop, Metadata{Name: "busy", Type: TypeText})
	require.NoError(t, err)
	wrapped := reg.Get(id).Wrapped()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = wrapped(nil)
			}
		}()
	}
	wg.Wait()

	snap := reg.Get(id).Stats().Snapshot()
	assert.Equal(t, int64(workers*perWorker), snap.Calls)
	assert.Zero(t, snap.Errors)
}

func TestRawFunctionBypassesStats(t *testing.T) {
	reg := New()
	id, err := reg.Register(noop, Metadata{Name: "plain", Type: TypeText})
	require.NoError(t, err)
	h := reg.Get(id)

	require.NoError(t, h.Func()(nil))
	assert.Zero(t, h.Stats().Snapshot().Calls)
}
