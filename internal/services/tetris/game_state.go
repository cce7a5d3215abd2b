package tetris

import (
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/random"
)

// ゲーム全体に影響する定数です。
const (
	InitialTickInterval = 1000 * time.Millisecond // 自動落下（重力ティック）の間隔
	LineClearScore      = 10                      // 1ラインあたりの加算スコア（同時消しボーナスなし）
)

// Option は GameState の生成時設定です。
type Option func(*GameState)

// WithBoardSize はボードのサイズを指定します。
func WithBoardSize(width, height int) Option {
	return func(s *GameState) {
		s.width = width
		s.height = height
	}
}

// WithTickInterval は重力ティックの間隔を指定します。Reset時もこの値に戻ります。
func WithTickInterval(d time.Duration) Option {
	return func(s *GameState) {
		if d > 0 {
			s.initialTickInterval = d
		}
	}
}

// WithRand はピース生成用の乱数ジェネレータを指定します。テストで出現順を固定するために使います。
func WithRand(r *rand.Rand) Option {
	return func(s *GameState) {
		s.randGenerator = r
	}
}

// GameState は単一プレイヤーのテトリスゲーム状態です。
// 並行アクセスには対応していません。操作は所有者（セッションのゴルーチンなど）が1つずつ順番に行います。
type GameState struct {
	Board        *tetris.Board // 現在のゲームボード
	CurrentPiece *tetris.Piece // 現在操作中のテトリミノ
	Score        int           // 現在のスコア（増加のみ）
	LinesCleared int           // クリアしたライン数
	IsGameOver   bool          // ゲームオーバー状態かどうか（Resetでのみ解除）
	TickInterval time.Duration // 自動落下の間隔

	width               int
	height              int
	initialTickInterval time.Duration
	randGenerator       *rand.Rand // ピース生成用の乱数ジェネレータ
}

// NewGameState は新しいゲーム状態を初期化し、最初のピースを出現させて返します。
//
// Parameters:
//   opts : ボードサイズ、ティック間隔、乱数ジェネレータの設定
// Returns:
//   *GameState: Playing 状態のゲーム
func NewGameState(opts ...Option) *GameState {
	s := &GameState{
		width:               tetris.BoardWidth,
		height:              tetris.BoardHeight,
		initialTickInterval: InitialTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.randGenerator == nil {
		s.randGenerator = random.NewRand()
	}

	s.Reset()
	return s
}

// Reset はボード、スコア、ティック間隔を初期化し、新しいピースを出現させます。
// ゲームオーバー中でも実行できます。
func (s *GameState) Reset() {
	s.Board = tetris.NewBoard(s.width, s.height)
	s.Score = 0
	s.LinesCleared = 0
	s.IsGameOver = false
	s.TickInterval = s.initialTickInterval
	s.CurrentPiece = nil
	s.SpawnNewPiece()
}

// SpawnNewPiece は新しいテトリミノをボード中央上部に出現させます。
// 出現位置の衝突判定はここでは行いません。ゲームオーバーは次の落下の失敗で判定されます。
func (s *GameState) SpawnNewPiece() {
	s.CurrentPiece = tetris.RandomPiece(s.randGenerator, s.Board.Width())
}

// PieceCell はスナップショット上の操作中ピースの1マスです。
type PieceCell struct {
	X    int         `json:"x"`
	Y    int         `json:"y"`
	Cell tetris.Cell `json:"cell"`
}

// Snapshot はレンダラー向けの読み取り専用のゲーム状態です。すべてコピーなので変更してもゲームに影響しません。
type Snapshot struct {
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	Board            [][]tetris.Cell `json:"board"`
	ActivePieceCells []PieceCell     `json:"active_piece_cells"`
	ActivePieceType  string          `json:"active_piece_type,omitempty"`
	Score            int             `json:"score"`
	LinesCleared     int             `json:"lines_cleared"`
	IsGameOver       bool            `json:"is_game_over"`
	TickIntervalMs   int64           `json:"tick_interval_ms"`
}

// Snapshot は現在の状態のスナップショットを返します。
// 操作中ピースのマスはボードの表示範囲内のものだけを含みます。
func (s *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Width:            s.Board.Width(),
		Height:           s.Board.Height(),
		Board:            s.Board.Rows(),
		ActivePieceCells: []PieceCell{},
		Score:            s.Score,
		LinesCleared:     s.LinesCleared,
		IsGameOver:       s.IsGameOver,
		TickIntervalMs:   s.TickInterval.Milliseconds(),
	}

	if p := s.CurrentPiece; p != nil {
		snap.ActivePieceType = p.Type.String()
		for _, block := range p.Blocks() {
			x, y := p.X+block[0], p.Y+block[1]
			if s.Board.IsWithinBounds(x, y) {
				snap.ActivePieceCells = append(snap.ActivePieceCells, PieceCell{X: x, Y: y, Cell: p.Cell()})
			}
		}
	}
	return snap
}
