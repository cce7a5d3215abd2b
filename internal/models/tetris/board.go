package tetris

const (
	BoardWidth  = 10 // テトリスボードの幅（デフォルト）
	BoardHeight = 20 // テトリスボードの高さ（デフォルト）
)

// Cell はボード上の1マスの状態を表します。
// CellEmpty 以外の値は、そのマスを埋めたテトリミノの見た目（タグ）を示します。
// ボードはタグ以上のピース情報を保持しません。
type Cell int

const (
	CellEmpty Cell = iota // 0: 空のマス
	CellI                 // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	CellJ                 // 2: J-テトリミノ由来のブロック (PieceType 1 + 1)
	CellL                 // 3: L-テトリミノ由来のブロック (PieceType 2 + 1)
	CellO                 // 4: O-テトリミノ由来のブロック (PieceType 3 + 1)
	CellS                 // 5: S-テトリミノ由来のブロック (PieceType 4 + 1)
	CellT                 // 6: T-テトリミノ由来のブロック (PieceType 5 + 1)
	CellZ                 // 7: Z-テトリミノ由来のブロック (PieceType 6 + 1)
)

// Occupied はマスが埋まっているかどうかを返します。
func (c Cell) Occupied() bool {
	return c != CellEmpty
}

// String はマスの表示用の文字列（テトリミノの種類名、空なら "."）を返します。
func (c Cell) String() string {
	if c == CellEmpty {
		return "."
	}
	return PieceType(c - 1).String()
}

// Color はレンダラーが使う色名を返します。
func (c Cell) Color() string {
	switch c {
	case CellI:
		return "blue"
	case CellJ:
		return "orange"
	case CellL:
		return "yellow"
	case CellO:
		return "green"
	case CellS:
		return "red"
	case CellT:
		return "purple"
	case CellZ:
		return "pink"
	default:
		return "gray"
	}
}

// Board はテトリスのゲームボードです。
// cells[y][x] でアクセスします。yは行（0が最上段）、xは列です。
// 幅と高さは生成後に変わりません。
type Board struct {
	width  int
	height int
	cells  [][]Cell
}

// NewBoard は指定サイズの空のボードを初期化して返します。
//
// Parameters:
//   width  : ボードの幅（列数）
//   height : ボードの高さ（行数）
// Returns:
//   *Board: 全マスが CellEmpty のボード
func NewBoard(width, height int) *Board {
	b := &Board{width: width, height: height}
	b.cells = make([][]Cell, height)
	for y := range b.cells {
		b.cells[y] = make([]Cell, width)
	}
	return b
}

// Width はボードの幅を返します。
func (b *Board) Width() int { return b.width }

// Height はボードの高さを返します。
func (b *Board) Height() int { return b.height }

// IsWithinBounds は座標がボードの範囲内かどうかを判定します。
func (b *Board) IsWithinBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// CellAt は指定座標のマスを返します。範囲チェックは呼び出し側の責任です。
func (b *Board) CellAt(x, y int) Cell {
	return b.cells[y][x]
}

// SetCell は指定座標のマスを書き換えます。範囲外の座標は無視されます。
func (b *Board) SetCell(x, y int, c Cell) {
	if !b.IsWithinBounds(x, y) {
		return
	}
	b.cells[y][x] = c
}

// Place はピースをボードに固定します。
// ピースの埋まっている各マスを、そのピースのタグで埋めます。
// 衝突判定は行いません。呼び出し側で HasCollision を確認してください。
//
// Parameters:
//   p : ボードに固定するテトリミノのポインタ
func (b *Board) Place(p *Piece) {
	tag := p.Cell()
	for _, block := range p.Blocks() {
		x := p.X + block[0]
		y := p.Y + block[1]

		// ボード上部（見えない領域）にはみ出したブロックは捨てる
		if b.IsWithinBounds(x, y) {
			b.cells[y][x] = tag
		}
	}
}

// ClearFullRows は揃ったラインをすべて一度に消去し、上のブロックを落とします。
// 消したライン数と同じ数の空行が最上部に挿入されるため、ボードの高さは変わりません。
//
// Returns:
//   int: クリアされたライン数
func (b *Board) ClearFullRows() int {
	cleared := 0
	rows := make([][]Cell, b.height)
	destY := b.height - 1 // 残す行をコピーする位置（最下段から）

	// ボードの最下部から上に向かって各行をチェック
	for y := b.height - 1; y >= 0; y-- {
		if b.isRowFull(y) {
			cleared++
			continue
		}
		rows[destY] = b.cells[y]
		destY--
	}

	// 残りは空行で埋める
	for ; destY >= 0; destY-- {
		rows[destY] = make([]Cell, b.width)
	}

	b.cells = rows
	return cleared
}

func (b *Board) isRowFull(y int) bool {
	for _, c := range b.cells[y] {
		if !c.Occupied() {
			return false
		}
	}
	return true
}

// Rows はボードのディープコピーを返します。スナップショット用です。
func (b *Board) Rows() [][]Cell {
	rows := make([][]Cell, b.height)
	for y, row := range b.cells {
		rows[y] = append([]Cell(nil), row...)
	}
	return rows
}
