package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
	engine "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// 描画レイアウトの定数です。ボードの1マスは横2文字で描画します。
const (
	boardOriginX = 2
	boardOriginY = 1
	cellWidth    = 2
	panelGap     = 3
)

const gameOverBanner = "GAME OVER - press r"

var (
	styleDefault = tcell.StyleDefault
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleEmpty   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed).Bold(true)
)

// Renderer はスナップショットを tcell の画面に描画します。ゲーム状態は変更しません。
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer は新しい Renderer を作成します。
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// CellStyle は占有マスの描画スタイルを返します。
func CellStyle(c tetris.Cell) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.GetColor(c.Color()))
}

// CellPosition はボード座標 (x, y) のマスの左側の画面座標を返します。
func CellPosition(x, y int) (int, int) {
	return boardOriginX + x*cellWidth, boardOriginY + y
}

// Draw はボード、操作中のピース、スコア、ゲームオーバー表示を描画して画面を更新します。
func (r *Renderer) Draw(snap engine.Snapshot) {
	r.screen.Clear()

	r.drawWalls(snap.Width, snap.Height)
	for y, row := range snap.Board {
		for x, cell := range row {
			r.drawCell(x, y, cell)
		}
	}
	for _, pc := range snap.ActivePieceCells {
		r.drawCell(pc.X, pc.Y, pc.Cell)
	}

	panelX := boardOriginX + snap.Width*cellWidth + panelGap
	r.drawText(panelX, boardOriginY, styleLabel, "SCORE")
	r.drawText(panelX, boardOriginY+1, styleDefault, fmt.Sprintf("%d", snap.Score))
	r.drawText(panelX, boardOriginY+3, styleLabel, "LINES")
	r.drawText(panelX, boardOriginY+4, styleDefault, fmt.Sprintf("%d", snap.LinesCleared))
	r.drawText(panelX, boardOriginY+6, styleWall, "←/→ move  ↑ rotate")
	r.drawText(panelX, boardOriginY+7, styleWall, "↓ drop  r reset  q quit")

	if snap.IsGameOver {
		bannerX := boardOriginX + (snap.Width*cellWidth-len(gameOverBanner))/2
		if bannerX < 0 {
			bannerX = 0
		}
		r.drawText(bannerX, boardOriginY+snap.Height/2, styleBanner, gameOverBanner)
	}

	r.screen.Show()
}

func (r *Renderer) drawCell(x, y int, cell tetris.Cell) {
	sx, sy := CellPosition(x, y)
	if !cell.Occupied() {
		r.screen.SetContent(sx, sy, ' ', nil, styleEmpty)
		r.screen.SetContent(sx+1, sy, '.', nil, styleEmpty)
		return
	}
	style := CellStyle(cell)
	r.screen.SetContent(sx, sy, '█', nil, style)
	r.screen.SetContent(sx+1, sy, '█', nil, style)
}

func (r *Renderer) drawWalls(width, height int) {
	left := boardOriginX - 1
	right := boardOriginX + width*cellWidth
	for y := 0; y < height; y++ {
		r.screen.SetContent(left, boardOriginY+y, '|', nil, styleWall)
		r.screen.SetContent(right, boardOriginY+y, '|', nil, styleWall)
	}
	for x := left; x <= right; x++ {
		r.screen.SetContent(x, boardOriginY+height, '-', nil, styleWall)
	}
}

func (r *Renderer) drawText(x, y int, style tcell.Style, text string) {
	for i, ch := range []rune(text) {
		r.screen.SetContent(x+i, y, ch, nil, style)
	}
}
