package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris" // SessionManager をインポート
)

// authTimeout は WebSocket 接続後に認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// maxCommandBodyBytes はコマンドのリクエストボディの上限です。
const maxCommandBodyBytes = 1024

// GameHandler はゲーム関連のHTTPリクエスト（セッション作成、コマンド、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ゲームセッションの管理サービス
	auth           *middleware.Authenticator
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャーへのポインタ
//   auth           : WebSocket の認証メッセージを検証する Authenticator
//   allowedOrigins : WebSocket 接続を許可するオリジン（"*" ですべて許可）
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, auth *middleware.Authenticator, allowedOrigins []string) *GameHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// ブラウザ以外のクライアントは Origin を送らない
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeSessionError はセッション管理のエラーをステータスコードに変換して書き込みます。
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tetris.ErrSessionNotFound), errors.Is(err, tetris.ErrSessionClosed):
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
	case errors.Is(err, tetris.ErrNotSessionOwner):
		WriteErrorResponse(w, http.StatusForbidden, "このセッションを操作する権限がありません")
	case errors.Is(err, tetris.ErrTooManySessions):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "同時に作成できるセッション数の上限に達しています")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "セッションが応答しませんでした")
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, "内部エラーが発生しました")
	}
}

// ownedSession はURLパラメータのセッションを取得し、リクエストしたユーザーが所有者か確認します。
// 失敗した場合はエラーレスポンスを書き込み、nil を返します。
func (h *GameHandler) ownedSession(w http.ResponseWriter, r *http.Request) *tetris.GameSession {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return nil
	}

	sessionID := chi.URLParam(r, "sessionID") // URLパラメータからsessionIDを取得
	if sessionID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "セッションIDが必要です")
		return nil
	}

	session, err := h.sessionManager.GetOwnedSession(sessionID, userID)
	if err != nil {
		writeSessionError(w, err)
		return nil
	}
	return session
}

// CreateSession は新しいゲームセッションを作成するためのHTTPハンドラーです。
// POST /api/sessions
func (h *GameHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	session, err := h.sessionManager.CreateSession(userID)
	if err != nil {
		log.Printf("[GameHandler] Failed to create session for user %s: %v", userID, err)
		writeSessionError(w, err)
		return
	}

	snapshot, err := session.Snapshot(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	WriteJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"session_id": session.ID,
		"snapshot":   snapshot,
	})
}

// GetSession はセッションの現在のスナップショットを返すハンドラーです。
// GET /api/sessions/{sessionID}
func (h *GameHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := h.ownedSession(w, r)
	if session == nil {
		return
	}

	snapshot, err := session.Snapshot(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, snapshot)
}

// PostCommand はプレイヤーの操作を1つ適用するハンドラーです。
// POST /api/sessions/{sessionID}/commands
func (h *GameHandler) PostCommand(w http.ResponseWriter, r *http.Request) {
	session := h.ownedSession(w, r)
	if session == nil {
		return
	}

	var req tetris.PlayerInputEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBodyBytes)).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}
	action, ok := tetris.ParseAction(req.Action)
	if !ok {
		log.Printf("[GameHandler] Unknown action %q for session %s", req.Action, session.ID)
		WriteErrorResponse(w, http.StatusBadRequest, "不明なアクションです: "+req.Action)
		return
	}

	result, err := session.Apply(r.Context(), action)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, result)
}

// DeleteSession はセッションを終了させるハンドラーです。
// DELETE /api/sessions/{sessionID}
func (h *GameHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.sessionManager.EndSession(chi.URLParam(r, "sessionID"), userID); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authMessage は WebSocket 接続後、最初にクライアントが送る認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証後に接続をセッションマネージャーに引き渡します。
// GET /ws/{sessionID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "WebSocket接続にはセッションIDが必要です")
		return
	}

	// HTTP接続をWebSocket接続にアップグレード
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for session %s: %v", sessionID, err)
		return // アップグレード失敗時はエラーログのみ
	}

	userID, err := h.authenticate(conn)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for session %s: %v", sessionID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}
	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})

	// SessionManager に新しいWebSocket接続を登録
	if err := h.sessionManager.RegisterClient(sessionID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to session %s: %v", userID, sessionID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close() // 登録失敗時はコネクションを閉じる
		return
	}
	// RegisterClient内で readPump と writePump ゴルーチンが開始されるため、ここではそれ以上の処理は不要です。
}

// authenticate は最初のメッセージを認証メッセージとして読み、ユーザーIDを返します。
func (h *GameHandler) authenticate(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{}) // タイムアウトを解除

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", errors.New("failed to read auth message")
	}
	if msg.Type != "auth" {
		return "", errors.New("expected auth message")
	}
	return h.auth.ParseToken(msg.Token)
}
