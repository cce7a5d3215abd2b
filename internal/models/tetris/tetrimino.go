package tetris

import "math/rand"

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ
	TypeJ                  // 1: J-ミノ
	TypeL                  // 2: L-ミノ
	TypeO                  // 3: O-ミノ
	TypeS                  // 4: S-ミノ
	TypeT                  // 5: T-ミノ
	TypeZ                  // 6: Z-ミノ
)

// PieceTypeCount はカタログに含まれるテトリミノの種類数です。
const PieceTypeCount = 7

// String はPieceTypeを文字列表現に変換します。
func (t PieceType) String() string {
	switch t {
	case TypeI:
		return "I"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	case TypeO:
		return "O"
	case TypeS:
		return "S"
	case TypeT:
		return "T"
	case TypeZ:
		return "Z"
	default:
		return "?"
	}
}

// Shape はテトリミノの占有行列です。shape[y][x] が true のマスにブロックがあります。
type Shape [][]bool

// Clone は行列のディープコピーを返します。
func (s Shape) Clone() Shape {
	c := make(Shape, len(s))
	for y, row := range s {
		c[y] = append([]bool(nil), row...)
	}
	return c
}

// ShapeDef はカタログ上のテトリミノ定義です。定義後に変更されることはありません。
type ShapeDef struct {
	Type  PieceType
	Cell  Cell
	shape Shape
}

// Shape は定義の占有行列のコピーを返します。カタログの原本は渡しません。
func (d ShapeDef) Shape() Shape {
	return d.shape.Clone()
}

// shapeCatalog は7種類のテトリミノ定義です。インデックスはPieceTypeと一致します。
var shapeCatalog = [PieceTypeCount]ShapeDef{
	{Type: TypeI, Cell: CellI, shape: Shape{
		{true, true, true, true},
	}},
	{Type: TypeJ, Cell: CellJ, shape: Shape{
		{true, false, false},
		{true, true, true},
	}},
	{Type: TypeL, Cell: CellL, shape: Shape{
		{false, false, true},
		{true, true, true},
	}},
	{Type: TypeO, Cell: CellO, shape: Shape{
		{true, true},
		{true, true},
	}},
	{Type: TypeS, Cell: CellS, shape: Shape{
		{false, true, true},
		{true, true, false},
	}},
	{Type: TypeT, Cell: CellT, shape: Shape{
		{false, true, false},
		{true, true, true},
	}},
	{Type: TypeZ, Cell: CellZ, shape: Shape{
		{true, true, false},
		{false, true, true},
	}},
}

// Catalog はテトリミノ定義の一覧を返します。
func Catalog() []ShapeDef {
	return append([]ShapeDef(nil), shapeCatalog[:]...)
}

// Piece は操作中のテトリミノです。
// Shape はカタログのコピー（回転で置き換わる）、X/Y はバウンディングボックス左上のボード座標です。
type Piece struct {
	Type  PieceType `json:"type"`
	Shape Shape     `json:"shape"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
}

// NewPiece は指定した種類のテトリミノを指定座標に生成します。
func NewPiece(t PieceType, x, y int) *Piece {
	return &Piece{
		Type:  t,
		Shape: shapeCatalog[t].Shape(),
		X:     x,
		Y:     y,
	}
}

// SpawnX はボード幅に対する出現位置のX座標（中央やや左）を返します。
func SpawnX(boardWidth int) int {
	return boardWidth/2 - 1
}

// RandomPiece は7種類から等確率で1つ選び、ボード中央上部に出現させます。
//
// Parameters:
//   r          : ピース選択に使う乱数ジェネレータ
//   boardWidth : 出現位置の計算に使うボード幅
// Returns:
//   *Piece: 新しく生成されたテトリミノ
func RandomPiece(r *rand.Rand, boardWidth int) *Piece {
	t := PieceType(r.Intn(PieceTypeCount))
	return NewPiece(t, SpawnX(boardWidth), 0)
}

// Cell はこのピースがボードに固定されたときのタグを返します。
func (p *Piece) Cell() Cell {
	return Cell(p.Type + 1)
}

// Width は占有行列の幅を返します。
func (p *Piece) Width() int {
	if len(p.Shape) == 0 {
		return 0
	}
	return len(p.Shape[0])
}

// Height は占有行列の高さを返します。
func (p *Piece) Height() int {
	return len(p.Shape)
}

// Blocks は占有されているマスの相対座標 {x, y} の一覧を返します。
func (p *Piece) Blocks() [][2]int {
	blocks := make([][2]int, 0, 4)
	for y, row := range p.Shape {
		for x, filled := range row {
			if filled {
				blocks = append(blocks, [2]int{x, y})
			}
		}
	}
	return blocks
}

// Clone は現在のPieceのディープコピーを返します。
func (p *Piece) Clone() *Piece {
	return &Piece{
		Type:  p.Type,
		Shape: p.Shape.Clone(),
		X:     p.X,
		Y:     p.Y,
	}
}

// Translate は座標を (dx, dy) だけずらした新しいピースを返します。元のピースは変更しません。
func (p *Piece) Translate(dx, dy int) *Piece {
	moved := p.Clone()
	moved.X += dx
	moved.Y += dy
	return moved
}

// Rotate は占有行列を90度回転させた新しいピースを返します。座標は変わりません。
// 壁蹴りは行わないため、衝突判定は呼び出し側で行います。
func (p *Piece) Rotate() *Piece {
	return &Piece{
		Type:  p.Type,
		Shape: RotateShape(p.Shape),
		X:     p.X,
		Y:     p.Y,
	}
}

// RotateShape は行列を転置してから行の順序を反転させます。
// 入力の行列は変更しません。長方形の行列は幅と高さが入れ替わります。
func RotateShape(s Shape) Shape {
	if len(s) == 0 {
		return Shape{}
	}
	rows, cols := len(s), len(s[0])
	rotated := make(Shape, cols)
	for i := range rotated {
		rotated[i] = make([]bool, rows)
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			// 転置 (x, y) -> (y, x) の後、行 x を cols-1-x に移す
			rotated[cols-1-x][y] = s[y][x]
		}
	}
	return rotated
}
