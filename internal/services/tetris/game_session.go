package tetris

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// CommandResult はコマンド適用の結果です。
type CommandResult struct {
	Changed  bool     `json:"changed"`
	Snapshot Snapshot `json:"snapshot"`
}

type commandRequest struct {
	action Action
	reply  chan CommandResult
}

// GameSession はサーバー上で動作する1つのゲームです。
// GameState に触れるのは run ゴルーチンだけで、ティック・コマンド・スナップショット要求は
// すべてチャネル経由で到着順に1つずつ処理されます。
type GameSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	state     *GameState
	commands  chan commandRequest
	snapshots chan chan Snapshot
	attach    chan *Client
	detach    chan *Client
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	lastActive atomic.Int64 // UnixNano
	hasClient  atomic.Bool
}

// newGameSession はセッションを作成し、イベントループを開始します。
func newGameSession(id, userID string, opts ...Option) *GameSession {
	gs := &GameSession{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		state:     NewGameState(opts...),
		commands:  make(chan commandRequest),
		snapshots: make(chan chan Snapshot),
		attach:    make(chan *Client),
		detach:    make(chan *Client),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	gs.touch()
	go gs.run()
	return gs
}

// run はセッションのイベントループです。
func (gs *GameSession) run() {
	defer close(gs.done)

	ticker := time.NewTicker(gs.state.TickInterval)
	defer ticker.Stop()

	var client *Client
	for {
		select {
		case <-ticker.C:
			if gs.state.OnTick() {
				gs.push(client, gs.state.Snapshot())
			}

		case req := <-gs.commands:
			changed := gs.state.OnCommand(req.action)
			if req.action == ActionReset {
				ticker.Reset(gs.state.TickInterval)
			}
			snap := gs.state.Snapshot()
			req.reply <- CommandResult{Changed: changed, Snapshot: snap}
			if changed {
				gs.push(client, snap)
			}

		case reply := <-gs.snapshots:
			reply <- gs.state.Snapshot()

		case c := <-gs.attach:
			// 既存の接続があれば置き換える（再接続対応）
			if client != nil && client != c {
				log.Printf("[GameSession] Replacing existing connection in session %s", gs.ID)
				client.SafeClose()
			}
			client = c
			gs.hasClient.Store(true)
			gs.push(client, gs.state.Snapshot())

		case c := <-gs.detach:
			c.SafeClose()
			if client == c {
				client = nil
				gs.hasClient.Store(false)
				gs.touch()
			}

		case <-gs.quit:
			if client != nil {
				client.SafeClose()
			}
			gs.hasClient.Store(false)
			log.Printf("[GameSession] Session %s stopped (score: %d)", gs.ID, gs.state.Score)
			return
		}
	}
}

// push はスナップショットを接続中のクライアントへ送ります。クライアントがいない場合は何もしません。
func (gs *GameSession) push(client *Client, snap Snapshot) {
	if client == nil {
		return
	}
	stateJSON, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[GameSession] Error marshaling snapshot for session %s: %v", gs.ID, err)
		return
	}
	if !client.SafeSend(stateJSON) {
		log.Printf("[GameSession] Failed to send to client %s (channel closed or full)", client.UserID)
	}
}

// Apply はプレイヤーのコマンドをセッションのループで適用し、結果を返します。
//
// Parameters:
//   ctx    : キャンセル用のコンテキスト
//   action : 適用するアクション
// Returns:
//   CommandResult: 状態が変化したかどうかと適用後のスナップショット
//   error        : セッションが終了している場合は ErrSessionClosed
func (gs *GameSession) Apply(ctx context.Context, action Action) (CommandResult, error) {
	gs.touch()
	reply := make(chan CommandResult, 1)
	select {
	case gs.commands <- commandRequest{action: action, reply: reply}:
	case <-gs.done:
		return CommandResult{}, ErrSessionClosed
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}

	// 受け付けられたコマンドには必ず応答がある
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}

// Snapshot は現在のゲーム状態のスナップショットを返します。
// 参照もアクティビティとして扱い、アイドル判定を延長します。
func (gs *GameSession) Snapshot(ctx context.Context) (Snapshot, error) {
	gs.touch()
	reply := make(chan Snapshot, 1)
	select {
	case gs.snapshots <- reply:
	case <-gs.done:
		return Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (gs *GameSession) attachClient(c *Client) error {
	select {
	case gs.attach <- c:
		gs.touch()
		return nil
	case <-gs.done:
		return ErrSessionClosed
	}
}

func (gs *GameSession) detachClient(c *Client) {
	select {
	case gs.detach <- c:
	case <-gs.done:
		c.SafeClose()
	}
}

// Close はイベントループを停止し、終了を待ちます。複数回呼んでも安全です。
func (gs *GameSession) Close() {
	gs.closeOnce.Do(func() {
		close(gs.quit)
	})
	<-gs.done
}

// Closed はセッションが終了済みかどうかを返します。
func (gs *GameSession) Closed() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}

// IdleFor は最後の操作からの経過時間を返します。クライアントが接続中の場合は0です。
func (gs *GameSession) IdleFor(now time.Time) time.Duration {
	if gs.hasClient.Load() {
		return 0
	}
	return now.Sub(time.Unix(0, gs.lastActive.Load()))
}

func (gs *GameSession) touch() {
	gs.lastActive.Store(time.Now().UnixNano())
}
