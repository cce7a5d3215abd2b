package terminal

import (
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	engine "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// Game はローカル端末で1人用のゲームを動かします。
// GameState に触れるのは Run のループだけです。
type Game struct {
	screen   tcell.Screen
	state    *engine.GameState
	renderer *Renderer
}

// NewGame は初期化済みの screen を使うゲームを作成します。
func NewGame(screen tcell.Screen, opts ...engine.Option) *Game {
	return &Game{
		screen:   screen,
		state:    engine.NewGameState(opts...),
		renderer: NewRenderer(screen),
	}
}

// State は現在のゲーム状態を返します。
func (g *Game) State() *engine.GameState {
	return g.state
}

// HandleEvent は1つの端末イベントを処理します。
//
// Returns:
//   bool: 終了キーが押された場合は false
func (g *Game) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		action, ok, quit := KeyToAction(ev)
		if quit {
			return false
		}
		if ok && g.state.OnCommand(action) {
			g.Draw()
		}

	case *tcell.EventResize:
		g.screen.Sync()
		g.Draw()
	}
	return true
}

// IsResetEvent はイベントがリセットキーかどうかを返します。
func IsResetEvent(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	action, ok, _ := KeyToAction(key)
	return ok && action == engine.ActionReset
}

// Tick は重力ティックを1回進めます。
func (g *Game) Tick() {
	if g.state.OnTick() {
		g.Draw()
	}
}

// Draw は現在の状態を描画します。
func (g *Game) Draw() {
	g.renderer.Draw(g.state.Snapshot())
}

// Run は終了キーが押されるまでイベントとティックを処理します。
func (g *Game) Run() {
	ticker := time.NewTicker(g.state.TickInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return // 画面が終了した
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	g.Draw()
	for {
		select {
		case ev := <-eventChan:
			if !g.HandleEvent(ev) {
				log.Printf("[Game] Quit with score %d", g.state.Score)
				return
			}
			// リセット後は次の落下まで1周期待つ
			if IsResetEvent(ev) {
				ticker.Reset(g.state.TickInterval)
			}

		case <-ticker.C:
			g.Tick()
		}
	}
}
