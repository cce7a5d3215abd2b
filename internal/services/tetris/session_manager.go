package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// セッション管理のエラーです。ハンドラーは errors.Is で判定してステータスコードに変換します。
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrNotSessionOwner = errors.New("session belongs to another user")
)

// WebSocket接続の設定値です。
const (
	writeWait      = 10 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 60 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 64
	commandTimeout = 5 * time.Second
)

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID    string          // このクライアントに紐づくユーザーのID
	SessionID string          // 接続先のセッションID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// PlayerInputEvent はクライアントから受信する操作メッセージです。
type PlayerInputEvent struct {
	Action string `json:"action"` // "move_left", "move_right", "rotate", "soft_drop", "reset"
}

// Settings はセッションマネージャーが作成するゲームの設定です。
type Settings struct {
	BoardWidth   int
	BoardHeight  int
	TickInterval time.Duration
	MaxSessions  int // 同時に存在できるセッション数の上限
}

// DefaultSettings は標準のボードサイズとティック間隔を返します。
func DefaultSettings() Settings {
	return Settings{
		BoardWidth:   tetris.BoardWidth,
		BoardHeight:  tetris.BoardHeight,
		TickInterval: InitialTickInterval,
		MaxSessions:  100,
	}
}

// SessionManager はゲームセッションの全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
type SessionManager struct {
	settings Settings
	sessions map[string]*GameSession // sessionID -> GameSession のマップ
	mu       sync.RWMutex            // sessions マップへのアクセスを保護するためのRWMutex
	closed   bool
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
// 0以下の設定値は DefaultSettings の値で補われます。
//
// Parameters:
//   settings : ゲームの設定
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(settings Settings) *SessionManager {
	def := DefaultSettings()
	if settings.BoardWidth <= 0 || settings.BoardHeight <= 0 {
		settings.BoardWidth, settings.BoardHeight = def.BoardWidth, def.BoardHeight
	}
	if settings.TickInterval <= 0 {
		settings.TickInterval = def.TickInterval
	}
	if settings.MaxSessions <= 0 {
		settings.MaxSessions = def.MaxSessions
	}

	return &SessionManager{
		settings: settings,
		sessions: make(map[string]*GameSession),
	}
}

// CreateSession は新しいゲームセッションを作成し、ゲームを開始します。
//
// Parameters:
//   userID : セッションの所有者
// Returns:
//   *GameSession: 作成されたセッション
//   error       : 上限に達している場合は ErrTooManySessions
func (sm *SessionManager) CreateSession(userID string) (*GameSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed {
		return nil, ErrSessionClosed
	}
	if len(sm.sessions) >= sm.settings.MaxSessions {
		log.Printf("[SessionManager] Session limit reached (%d), rejecting user %s", sm.settings.MaxSessions, userID)
		return nil, ErrTooManySessions
	}

	sessionID := uuid.New().String() // 新しいセッションIDを生成
	session := newGameSession(sessionID, userID,
		WithBoardSize(sm.settings.BoardWidth, sm.settings.BoardHeight),
		WithTickInterval(sm.settings.TickInterval),
	)
	sm.sessions[sessionID] = session

	log.Printf("[SessionManager] Created new game session: %s for user %s", sessionID, userID)
	return session, nil
}

// GetSession は指定されたIDのゲームセッションを取得します。
func (sm *SessionManager) GetSession(sessionID string) (*GameSession, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOwnedSession はセッションを取得し、所有者を確認します。
func (sm *SessionManager) GetOwnedSession(sessionID, userID string) (*GameSession, error) {
	session, err := sm.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// EndSession はセッションを終了させ、マップから削除します。
func (sm *SessionManager) EndSession(sessionID, userID string) error {
	session, err := sm.GetOwnedSession(sessionID, userID)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	session.Close()
	log.Printf("[SessionManager] Game session %s ended by user %s", sessionID, userID)
	return nil
}

// ActiveSessions は現在のセッション数を返します。
func (sm *SessionManager) ActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupIdleSessions は maxIdle 以上操作のないセッションを終了させます。
//
// Returns:
//   int: 終了させたセッション数
func (sm *SessionManager) CleanupIdleSessions(maxIdle time.Duration) int {
	now := time.Now()

	sm.mu.Lock()
	var expired []*GameSession
	for id, session := range sm.sessions {
		if session.Closed() || session.IdleFor(now) >= maxIdle {
			expired = append(expired, session)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	// ループの停止はロック外で待つ
	for _, session := range expired {
		session.Close()
		log.Printf("[SessionManager] Removed idle session %s (user %s)", session.ID, session.UserID)
	}
	return len(expired)
}

// MaintainSessions は ctx が終了するまで、interval ごとにアイドルセッションを掃除します。
func (sm *SessionManager) MaintainSessions(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sm.CleanupIdleSessions(maxIdle); n > 0 {
				log.Printf("[SessionManager] Cleanup removed %d sessions, %d active", n, sm.ActiveSessions())
			}
		}
	}
}

// RegisterClient は認証済みのWebSocket接続をセッションに接続し、読み書きのゴルーチンを開始します。
//
// Parameters:
//   sessionID : 接続先のセッションID
//   userID    : クライアントのユーザーID
//   conn      : WebSocketコネクション
// Returns:
//   error: セッションが存在しない、所有者でない、または終了済みの場合
func (sm *SessionManager) RegisterClient(sessionID, userID string, conn *websocket.Conn) error {
	session, err := sm.GetOwnedSession(sessionID, userID)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:    userID,
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}

	// 初回スナップショットは Send のバッファに入り、writePump の開始後に送信される
	if err := session.attachClient(client); err != nil {
		return fmt.Errorf("failed to attach client to session %s: %w", sessionID, err)
	}

	go sm.readPump(session, client)
	go client.writePump()

	log.Printf("[SessionManager] Client %s registered for session %s", userID, sessionID)
	return nil
}

// readPump はクライアントからのWebSocketメッセージを読み込み、セッションへコマンドとして渡します。
func (sm *SessionManager) readPump(session *GameSession, client *Client) {
	defer func() {
		// パニック回復処理
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for user %s: %v", client.UserID, r)
		}

		log.Printf("[SessionManager] Client %s disconnecting from session %s", client.UserID, client.SessionID)
		session.detachClient(client)

		if err := client.Conn.Close(); err != nil {
			log.Printf("[SessionManager] Error closing WebSocket connection for user %s: %v", client.UserID, err)
		}
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var inputEvent PlayerInputEvent
		if err := json.Unmarshal(message, &inputEvent); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v, message: %s", client.UserID, err, message)
			continue // パース失敗時はこのメッセージをスキップ
		}
		action, ok := ParseAction(inputEvent.Action)
		if !ok {
			log.Printf("[SessionManager] Unknown action %q from user %s", inputEvent.Action, client.UserID)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		_, err = session.Apply(ctx, action)
		cancel()
		if errors.Is(err, ErrSessionClosed) {
			return
		}
		if err != nil {
			log.Printf("[SessionManager] Failed to apply %s for user %s: %v", action, client.UserID, err)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		// パニック回復処理
		if r := recover(); r != nil {
			log.Printf("[Client] Panic in writePump for user %s: %v", c.UserID, r)
		}
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// セッションがチャネルを閉じた場合 (切断、置き換え、セッション終了)
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for user %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// Shutdown はSessionManagerを安全にシャットダウンします
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")

	sm.mu.Lock()
	sm.closed = true
	sessions := sm.sessions
	sm.sessions = make(map[string]*GameSession)
	sm.mu.Unlock()

	for id, session := range sessions {
		log.Printf("[SessionManager] セッション %s を停止中...", id)
		session.Close()
	}

	log.Printf("[SessionManager] シャットダウン完了")
}
