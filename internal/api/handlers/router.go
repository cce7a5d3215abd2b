package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/api/middleware"
)

// NewRouter はAPIのルーティングを設定したハンドラーを返します。
func NewRouter(game *GameHandler, public *PublicHandler, auth *middleware.Authenticator, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSHandler(allowedOrigins))

	// 認証不要な公開エンドポイント
	r.Get("/api/health", public.Health)

	// WebSocket はブラウザがヘッダーを付けられないため、接続後の認証メッセージで認証する
	r.Get("/ws/{sessionID}", game.HandleWebSocketConnection)

	// 認証が必要なエンドポイント
	r.Route("/api/sessions", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/", game.CreateSession)
		r.Get("/{sessionID}", game.GetSession)
		r.Post("/{sessionID}/commands", game.PostCommand)
		r.Delete("/{sessionID}", game.DeleteSession)
	})

	return r
}
