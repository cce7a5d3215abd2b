package tetris

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession はティックが実質発生しないセッションを作成します。
func newTestSession(t *testing.T, tick time.Duration) *GameSession {
	t.Helper()
	gs := newGameSession("session-1", "user-1", WithTickInterval(tick))
	t.Cleanup(gs.Close)
	return gs
}

func TestGameSession_ApplyReturnsSnapshot(t *testing.T) {
	gs := newTestSession(t, time.Hour)
	ctx := context.Background()

	before, err := gs.Snapshot(ctx)
	require.NoError(t, err)

	res, err := gs.Apply(ctx, ActionSoftDrop)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	require.NotEmpty(t, res.Snapshot.ActivePieceCells)
	require.NotEmpty(t, before.ActivePieceCells)
	assert.Equal(t, before.ActivePieceCells[0].Y+1, res.Snapshot.ActivePieceCells[0].Y)
}

func TestGameSession_UnknownActionUnchanged(t *testing.T) {
	gs := newTestSession(t, time.Hour)

	res, err := gs.Apply(context.Background(), Action("spin"))

	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestGameSession_TicksDriveGravity(t *testing.T) {
	gs := newTestSession(t, 5*time.Millisecond)
	ctx := context.Background()

	assert.Eventually(t, func() bool {
		snap, err := gs.Snapshot(ctx)
		if err != nil {
			return false
		}
		for _, c := range snap.ActivePieceCells {
			if c.Y >= 3 {
				return true
			}
		}
		// 固定済みのピースがあれば落下が進んでいる
		for _, row := range snap.Board {
			for _, cell := range row {
				if cell.Occupied() {
					return true
				}
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGameSession_ResetRestartsGame(t *testing.T) {
	gs := newTestSession(t, time.Hour)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := gs.Apply(ctx, ActionSoftDrop)
		require.NoError(t, err)
	}

	res, err := gs.Apply(ctx, ActionReset)

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Snapshot.IsGameOver)
	assert.Equal(t, 0, res.Snapshot.Score)
	assert.Equal(t, int64(time.Hour/time.Millisecond), res.Snapshot.TickIntervalMs)
}

func TestGameSession_ClosedSessionRejectsCalls(t *testing.T) {
	gs := newGameSession("session-2", "user-1", WithTickInterval(time.Hour))

	gs.Close()
	gs.Close() // 2回目も安全

	assert.True(t, gs.Closed())
	_, err := gs.Apply(context.Background(), ActionRotate)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = gs.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestGameSession_ApplyHonoursContext(t *testing.T) {
	gs := newTestSession(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 既にキャンセルされていても、ループが受け付ければ結果は返る。どちらの結果でもブロックしないこと
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = gs.Apply(ctx, ActionMoveLeft)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Apply blocked on a cancelled context")
	}
}

func TestGameSession_IdleFor(t *testing.T) {
	gs := newTestSession(t, time.Hour)
	now := time.Now()

	assert.Less(t, gs.IdleFor(now), time.Second)
	assert.GreaterOrEqual(t, gs.IdleFor(now.Add(time.Minute)), time.Minute)

	gs.hasClient.Store(true)
	assert.Equal(t, time.Duration(0), gs.IdleFor(now.Add(time.Hour)))
}

func TestGameSession_SnapshotCountsAsActivity(t *testing.T) {
	gs := newTestSession(t, time.Hour)
	gs.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())

	_, err := gs.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Less(t, gs.IdleFor(time.Now()), time.Minute)
}
