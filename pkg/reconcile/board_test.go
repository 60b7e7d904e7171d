package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToggler struct {
	mu      sync.Mutex
	keys    []string
	started chan struct{}
	release chan struct{}
	result  VoteState
	err     error
	fetched VoteState

	fetchStarted chan struct{}
	fetchRelease chan struct{}
}

func (f *fakeToggler) Toggle(ctx context.Context, _ string, key string) (VoteState, error) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return VoteState{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeToggler) Fetch(ctx context.Context, _ string) (VoteState, error) {
	if f.fetchStarted != nil {
		f.fetchStarted <- struct{}{}
	}
	if f.fetchRelease != nil {
		select {
		case <-f.fetchRelease:
		case <-ctx.Done():
			return VoteState{}, ctx.Err()
		}
	}
	return f.fetched, nil
}

func (f *fakeToggler) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func TestToggleAdoptsServerState(t *testing.T) {
	// 其他人同时投了票，服务端计数比乐观猜测多
	f := &fakeToggler{result: VoteState{HasVoted: true, VoteCount: 5}}
	b := NewBoard(f)
	b.Seed("w1", VoteState{VoteCount: 2})

	got, err := b.Toggle(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 5}, got)

	snap, ok := b.Snapshot("w1")
	require.True(t, ok)
	assert.Equal(t, PhaseSettled, snap.Phase)
	assert.Equal(t, int64(5), snap.VoteCount)
}

func TestToggleLatchesWhileInFlight(t *testing.T) {
	f := &fakeToggler{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		result:  VoteState{HasVoted: true, VoteCount: 3},
	}
	b := NewBoard(f)
	b.Seed("w1", VoteState{VoteCount: 2})

	done := make(chan error, 1)
	go func() {
		_, err := b.Toggle(context.Background(), "w1")
		done <- err
	}()
	<-f.started

	snap, _ := b.Snapshot("w1")
	assert.Equal(t, PhaseReconciling, snap.Phase)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 3}, snap.VoteState)

	_, err := b.Toggle(context.Background(), "w1")
	assert.ErrorIs(t, err, ErrInFlight)
	_, err = b.Refresh(context.Background(), "w1")
	assert.ErrorIs(t, err, ErrInFlight)

	close(f.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.calls())

	snap, _ = b.Snapshot("w1")
	assert.Equal(t, PhaseSettled, snap.Phase)
}

func TestToggleFailureRollsBackWithoutRetry(t *testing.T) {
	closed := &ServerError{Status: 403, Code: "contest_closed"}
	f := &fakeToggler{err: closed}
	b := NewBoard(f)
	seed := VoteState{HasVoted: true, VoteCount: 7}
	b.Seed("w1", seed)

	got, err := b.Toggle(context.Background(), "w1")
	require.ErrorIs(t, err, closed)
	assert.Equal(t, seed, got)
	assert.Equal(t, 1, f.calls())

	snap, _ := b.Snapshot("w1")
	assert.Equal(t, PhaseRolledBack, snap.Phase)
	assert.Equal(t, seed, snap.VoteState)
	assert.Equal(t, closed, snap.Err)

	// 回滚后可以再次操作
	f.err = nil
	f.result = VoteState{VoteCount: 6}
	got, err = b.Toggle(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, VoteState{VoteCount: 6}, got)
}

func TestAbandonedToggleRequiresRefresh(t *testing.T) {
	f := &fakeToggler{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		fetched: VoteState{HasVoted: true, VoteCount: 1},
	}
	b := NewBoard(f)
	b.Seed("w1", VoteState{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Toggle(ctx, "w1")
		done <- err
	}()
	<-f.started
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	snap, _ := b.Snapshot("w1")
	assert.Equal(t, PhaseUnknown, snap.Phase)

	_, err := b.Toggle(context.Background(), "w1")
	assert.ErrorIs(t, err, ErrNeedsRefresh)

	got, err := b.Refresh(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, f.fetched, got)
	snap, _ = b.Snapshot("w1")
	assert.Equal(t, PhaseSettled, snap.Phase)
	assert.NoError(t, snap.Err)
}

func TestRefreshDiscardsFetchOlderThanToggle(t *testing.T) {
	// Fetch 读到的是切换之前的值，切换先于它落定
	f := &fakeToggler{
		result:       VoteState{HasVoted: true, VoteCount: 1},
		fetched:      VoteState{},
		fetchStarted: make(chan struct{}, 1),
		fetchRelease: make(chan struct{}),
	}
	b := NewBoard(f)
	b.Seed("w1", VoteState{})

	type refreshed struct {
		state VoteState
		err   error
	}
	done := make(chan refreshed, 1)
	go func() {
		s, err := b.Refresh(context.Background(), "w1")
		done <- refreshed{s, err}
	}()
	<-f.fetchStarted

	got, err := b.Toggle(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 1}, got)

	close(f.fetchRelease)
	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 1}, r.state)

	snap, _ := b.Snapshot("w1")
	assert.Equal(t, PhaseSettled, snap.Phase)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 1}, snap.VoteState)
}

func TestRefreshDuringInFlightToggleIsDiscarded(t *testing.T) {
	f := &fakeToggler{
		started:      make(chan struct{}, 1),
		release:      make(chan struct{}),
		result:       VoteState{HasVoted: true, VoteCount: 4},
		fetched:      VoteState{VoteCount: 3},
		fetchStarted: make(chan struct{}, 1),
		fetchRelease: make(chan struct{}),
	}
	b := NewBoard(f)
	b.Seed("w1", VoteState{VoteCount: 3})

	refreshErr := make(chan error, 1)
	go func() {
		_, err := b.Refresh(context.Background(), "w1")
		refreshErr <- err
	}()
	<-f.fetchStarted

	toggled := make(chan error, 1)
	go func() {
		_, err := b.Toggle(context.Background(), "w1")
		toggled <- err
	}()
	<-f.started

	close(f.fetchRelease)
	assert.ErrorIs(t, <-refreshErr, ErrInFlight)
	snap, _ := b.Snapshot("w1")
	assert.Equal(t, PhaseReconciling, snap.Phase)
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 4}, snap.VoteState)

	close(f.release)
	require.NoError(t, <-toggled)
	snap, _ = b.Snapshot("w1")
	assert.Equal(t, VoteState{HasVoted: true, VoteCount: 4}, snap.VoteState)
}

func TestEachToggleGetsFreshIdempotencyKey(t *testing.T) {
	f := &fakeToggler{}
	b := NewBoard(f)
	b.Seed("w1", VoteState{})

	for i := 0; i < 3; i++ {
		_, err := b.Toggle(context.Background(), "w1")
		require.NoError(t, err)
	}
	require.Len(t, f.keys, 3)
	assert.NotEqual(t, f.keys[0], f.keys[1])
	assert.NotEqual(t, f.keys[1], f.keys[2])
}

func TestToggleUnseededWork(t *testing.T) {
	b := NewBoard(&fakeToggler{})
	_, err := b.Toggle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownWork)
	_, ok := b.Snapshot("nope")
	assert.False(t, ok)
}

func TestOptimistic(t *testing.T) {
	o := NewOptimistic(10)

	v, err := o.Apply(func(n int) int { return n + 1 })
	require.NoError(t, err)
	assert.Equal(t, 11, v)
	assert.True(t, o.Pending())

	_, err = o.Apply(func(n int) int { return n + 1 })
	assert.ErrorIs(t, err, ErrInFlight)

	assert.Equal(t, 10, o.Rollback())
	assert.False(t, o.Pending())

	_, _ = o.Apply(func(n int) int { return n * 2 })
	o.Commit(42)
	assert.Equal(t, 42, o.Value())
	assert.False(t, o.Pending())
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    Phase
		ev      event
		want    Phase
		wantErr error
	}{
		{PhaseIdle, evApply, PhaseOptimistic, nil},
		{PhaseOptimistic, evSend, PhaseReconciling, nil},
		{PhaseReconciling, evConfirm, PhaseSettled, nil},
		{PhaseReconciling, evFail, PhaseRolledBack, nil},
		{PhaseReconciling, evAbandon, PhaseUnknown, nil},
		{PhaseUnknown, evRefresh, PhaseSettled, nil},
		{PhaseReconciling, evApply, PhaseReconciling, ErrInFlight},
		{PhaseUnknown, evApply, PhaseUnknown, ErrNeedsRefresh},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			got, err := next(tt.from, tt.ev)
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := next(PhaseSettled, evConfirm)
	assert.Error(t, err)
}

type draft struct {
	Title  string
	Status string
}

func TestSaveCommitsServerCopy(t *testing.T) {
	o := NewOptimistic(draft{Title: "old", Status: "approved"})
	rename := func(d draft) draft { d.Title = "new"; return d }

	got, err := Save(context.Background(), o, rename, func(_ context.Context, d draft) (draft, error) {
		d.Status = "pending"
		return d, nil
	})
	require.NoError(t, err)
	assert.Equal(t, draft{Title: "new", Status: "pending"}, got)

	boom := errors.New("store down")
	got, err = Save(context.Background(), o, func(d draft) draft { d.Title = "newer"; return d },
		func(context.Context, draft) (draft, error) { return draft{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, draft{Title: "new", Status: "pending"}, got)
	assert.False(t, o.Pending())
}
