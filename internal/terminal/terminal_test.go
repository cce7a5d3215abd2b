package terminal

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
	engine "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)
	return screen
}

// rowText は画面の1行を文字列として返します。
func rowText(screen tcell.Screen, y, width int) string {
	var sb strings.Builder
	for x := 0; x < width; x++ {
		mainc, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(mainc)
	}
	return sb.String()
}

func TestKeyToAction(t *testing.T) {
	tests := []struct {
		name   string
		ev     *tcell.EventKey
		action engine.Action
		ok     bool
		quit   bool
	}{
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), engine.ActionMoveLeft, true, false},
		{"right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), engine.ActionMoveRight, true, false},
		{"up rotates", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), engine.ActionRotate, true, false},
		{"down drops", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), engine.ActionSoftDrop, true, false},
		{"r resets", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), engine.ActionReset, true, false},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "", false, true},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), "", false, true},
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), "", false, true},
		{"unbound rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok, quit := KeyToAction(tt.ev)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.quit, quit)
		})
	}
}

func TestRenderer_DrawsBoardAndPiece(t *testing.T) {
	screen := newSimScreen(t)
	state := engine.NewGameState(engine.WithRand(rand.New(rand.NewSource(1))))
	state.Board.SetCell(0, tetris.BoardHeight-1, tetris.CellI)
	state.CurrentPiece = tetris.NewPiece(tetris.TypeO, 4, 0)
	state.Score = 30

	NewRenderer(screen).Draw(state.Snapshot())

	// 固定されたマス
	sx, sy := CellPosition(0, tetris.BoardHeight-1)
	mainc, _, style, _ := screen.GetContent(sx, sy)
	assert.Equal(t, '█', mainc)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.GetColor("blue"), fg)
	mainc, _, _, _ = screen.GetContent(sx+1, sy)
	assert.Equal(t, '█', mainc)

	// 操作中のピース
	sx, sy = CellPosition(5, 1)
	mainc, _, style, _ = screen.GetContent(sx, sy)
	assert.Equal(t, '█', mainc)
	fg, _, _ = style.Decompose()
	assert.Equal(t, tcell.GetColor("green"), fg)

	// 空きマス
	sx, sy = CellPosition(8, 10)
	mainc, _, _, _ = screen.GetContent(sx+1, sy)
	assert.Equal(t, '.', mainc)

	// 壁と床
	mainc, _, _, _ = screen.GetContent(boardOriginX-1, boardOriginY)
	assert.Equal(t, '|', mainc)
	mainc, _, _, _ = screen.GetContent(boardOriginX, boardOriginY+tetris.BoardHeight)
	assert.Equal(t, '-', mainc)

	assert.Contains(t, rowText(screen, boardOriginY, 80), "SCORE")
	assert.Contains(t, rowText(screen, boardOriginY+1, 80), "30")
}

func TestRenderer_GameOverBanner(t *testing.T) {
	screen := newSimScreen(t)
	state := engine.NewGameState()
	state.IsGameOver = true

	NewRenderer(screen).Draw(state.Snapshot())

	assert.Contains(t, rowText(screen, boardOriginY+tetris.BoardHeight/2, 80), gameOverBanner)
}

func TestGame_HandleEvent(t *testing.T) {
	screen := newSimScreen(t)
	game := NewGame(screen, engine.WithRand(rand.New(rand.NewSource(1))))
	game.State().CurrentPiece = tetris.NewPiece(tetris.TypeT, 4, 0)

	assert.True(t, game.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)))
	assert.Equal(t, 3, game.State().CurrentPiece.X)

	assert.True(t, game.HandleEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	assert.Equal(t, 1, game.State().CurrentPiece.Y)

	// 画面に反映されている
	sx, sy := CellPosition(4, 1)
	mainc, _, _, _ := screen.GetContent(sx, sy)
	assert.Equal(t, '█', mainc)

	assert.True(t, game.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
	assert.False(t, game.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestGame_ResetKeyAfterGameOver(t *testing.T) {
	screen := newSimScreen(t)
	game := NewGame(screen)
	game.State().IsGameOver = true
	game.State().Score = 50

	game.Tick() // ゲームオーバー中は何もしない
	assert.True(t, game.State().IsGameOver)

	require.True(t, game.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)))
	assert.False(t, game.State().IsGameOver)
	assert.Equal(t, 0, game.State().Score)
}

func TestGame_TickDrawsFall(t *testing.T) {
	screen := newSimScreen(t)
	game := NewGame(screen)
	game.State().CurrentPiece = tetris.NewPiece(tetris.TypeO, 4, 0)

	game.Tick()

	assert.Equal(t, 1, game.State().CurrentPiece.Y)
	sx, sy := CellPosition(4, 2)
	mainc, _, _, _ := screen.GetContent(sx, sy)
	assert.Equal(t, '█', mainc)
}

func TestIsResetEvent(t *testing.T) {
	assert.True(t, IsResetEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)))
	assert.True(t, IsResetEvent(tcell.NewEventKey(tcell.KeyRune, 'R', tcell.ModNone)))
	assert.False(t, IsResetEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	assert.False(t, IsResetEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.False(t, IsResetEvent(tcell.NewEventResize(80, 24)))
}

func TestGame_ResetKeyDuringPlay(t *testing.T) {
	screen := newSimScreen(t)
	game := NewGame(screen)
	game.State().Score = 20
	ev := tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)

	require.True(t, game.HandleEvent(ev))

	assert.True(t, IsResetEvent(ev), "a reset during play also restarts the tick phase")
	assert.Equal(t, 0, game.State().Score)
	assert.False(t, game.State().IsGameOver)
}
