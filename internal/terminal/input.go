package terminal

import (
	"github.com/gdamore/tcell/v2"

	engine "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// KeyToAction はキー入力をゲームのアクションに変換します。
//
// Returns:
//   action : 対応するアクション
//   ok     : アクションに対応するキーの場合 true
//   quit   : 終了キー（Esc, Ctrl-C, q）の場合 true
func KeyToAction(ev *tcell.EventKey) (action engine.Action, ok bool, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", false, true
	case tcell.KeyLeft:
		return engine.ActionMoveLeft, true, false
	case tcell.KeyRight:
		return engine.ActionMoveRight, true, false
	case tcell.KeyUp:
		return engine.ActionRotate, true, false
	case tcell.KeyDown:
		return engine.ActionSoftDrop, true, false
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return "", false, true
		case 'r', 'R':
			return engine.ActionReset, true, false
		}
	}
	return "", false, false
}
