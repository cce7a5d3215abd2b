package tetris

// HasCollision は指定されたピースがその位置で壁や既存のブロックと衝突するかどうかを判定します。
//
// Parameters:
//   p : 衝突判定を行うテトリミノのポインタ（移動・回転後の候補）
// Returns:
//   bool: 衝突する場合はtrue、しない場合はfalse
func (b *Board) HasCollision(p *Piece) bool {
	for _, block := range p.Blocks() {
		// ピースの位置 + ブロックの相対座標 = ボード上の絶対座標
		x := p.X + block[0]
		y := p.Y + block[1]

		// 左右の壁、または下部との衝突
		if x < 0 || x >= b.width || y >= b.height {
			return true
		}
		// 上部（見えない領域）は常に空として扱う。出現直後の回転を許すため y < 0 は衝突しない
		if y < 0 {
			continue
		}
		if b.cells[y][x].Occupied() {
			return true
		}
	}
	return false
}

// MinBoardHeight はボードの最小の高さです。縦向きのIが収まる必要があります。
const MinBoardHeight = 4

// SpawnFits は空のボードで全種類のピースが出現位置に収まるかどうかを返します。
// 収まらないサイズでは最初の落下でゲームオーバーになるため、設定の検証に使います。
func SpawnFits(width, height int) bool {
	if width <= 0 || height < MinBoardHeight {
		return false
	}
	b := NewBoard(width, height)
	for _, def := range shapeCatalog {
		if b.HasCollision(&Piece{Type: def.Type, Shape: def.Shape(), X: SpawnX(width)}) {
			return false
		}
	}
	return true
}
