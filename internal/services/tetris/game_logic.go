package tetris

import "log"

// Action はプレイヤーの操作コマンドです。
type Action string

const (
	ActionMoveLeft  Action = "move_left"
	ActionMoveRight Action = "move_right"
	ActionRotate    Action = "rotate"
	ActionSoftDrop  Action = "soft_drop"
	ActionReset     Action = "reset"
)

// ParseAction は文字列を Action に変換します。不明なコマンドの場合は false を返します。
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionMoveLeft, ActionMoveRight, ActionRotate, ActionSoftDrop, ActionReset:
		return a, true
	default:
		return "", false
	}
}

// OnCommand はプレイヤーの入力（アクション）に基づいてゲーム状態を更新します。
// ゲームオーバー中は reset 以外を無視します。不明なアクションも無視します。
//
// Parameters:
//   action : プレイヤーが実行したアクション（例: "move_left", "rotate"）
// Returns:
//   bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func (s *GameState) OnCommand(action Action) bool {
	if action == ActionReset {
		s.Reset()
		return true
	}
	if s.IsGameOver || s.CurrentPiece == nil {
		return false // ゲームオーバーまたはピースがない場合は操作を受け付けない
	}

	switch action {
	case ActionMoveLeft:
		return s.Move(-1)
	case ActionMoveRight:
		return s.Move(1)
	case ActionRotate:
		return s.Rotate()
	case ActionSoftDrop:
		return s.SoftDrop()
	default:
		return false
	}
}

// OnTick はタイマーから呼ばれる重力ティックです。ゲームオーバー中は何もしません。
func (s *GameState) OnTick() bool {
	return s.SoftDrop()
}

// Move は操作中のピースを左右に1マス移動させます。衝突する場合は何もしません。
//
// Parameters:
//   dir : -1 で左、+1 で右
func (s *GameState) Move(dir int) bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}
	if dir != -1 && dir != 1 {
		return false
	}

	// 移動後の候補で衝突判定し、衝突しない場合にのみ反映する
	moved := s.CurrentPiece.Translate(dir, 0)
	if s.Board.HasCollision(moved) {
		return false
	}
	s.CurrentPiece = moved
	return true
}

// Rotate は操作中のピースを回転させます。壁蹴りは行わず、衝突する場合は元の向きのままです。
func (s *GameState) Rotate() bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}

	rotated := s.CurrentPiece.Rotate()
	if s.Board.HasCollision(rotated) {
		return false
	}
	s.CurrentPiece = rotated
	return true
}

// SoftDrop はピースを1マス落下させます。落下できない場合は固定、または最上部ならゲームオーバーにします。
//
// Returns:
//   bool: ピースが落下・固定された、またはゲームオーバーになった場合はtrue
func (s *GameState) SoftDrop() bool {
	if s.IsGameOver || s.CurrentPiece == nil {
		return false
	}

	dropped := s.CurrentPiece.Translate(0, 1)
	if !s.Board.HasCollision(dropped) {
		s.CurrentPiece = dropped
		return true
	}

	// 最上部から1マスも落ちられない場合はゲームオーバー
	if s.CurrentPiece.Y < 1 {
		s.IsGameOver = true
		log.Printf("[Game] Game Over! Final Score: %d, Lines Cleared: %d", s.Score, s.LinesCleared)
		return true
	}

	s.handlePieceLock()
	return true
}

// handlePieceLock はピースの固定、ラインクリア、スコア加算、次のピース生成を1ステップで行います。
func (s *GameState) handlePieceLock() {
	s.Board.Place(s.CurrentPiece)

	cleared := s.Board.ClearFullRows()
	s.LinesCleared += cleared
	s.Score += cleared * LineClearScore

	s.SpawnNewPiece()
}
