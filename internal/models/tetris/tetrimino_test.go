package tetris

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_HasSevenShapesOfFourCells(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, PieceTypeCount)

	for i, def := range catalog {
		assert.Equal(t, PieceType(i), def.Type)
		assert.Equal(t, Cell(i+1), def.Cell)
		p := &Piece{Type: def.Type, Shape: def.Shape()}
		assert.Len(t, p.Blocks(), 4, "piece %s", def.Type)
	}
}

func TestCatalog_ShapeIsNotAliased(t *testing.T) {
	p := NewPiece(TypeT, 0, 0)
	p.Shape[0][0] = true

	fresh := NewPiece(TypeT, 0, 0)
	assert.False(t, fresh.Shape[0][0], "catalog shape must not change through a spawned piece")
}

func TestRotateShape_KnownResult(t *testing.T) {
	// T: [[0,1,0],[1,1,1]] -> 転置 [[0,1],[1,1],[0,1]] -> 行反転 [[0,1],[1,1],[0,1]]
	got := RotateShape(Shape{
		{false, true, false},
		{true, true, true},
	})
	assert.Equal(t, Shape{
		{false, true},
		{true, true},
		{false, true},
	}, got)

	// J: [[1,0,0],[1,1,1]] -> 転置 [[1,1],[0,1],[0,1]] -> 行反転 [[0,1],[0,1],[1,1]]
	got = RotateShape(Shape{
		{true, false, false},
		{true, true, true},
	})
	assert.Equal(t, Shape{
		{false, true},
		{false, true},
		{true, true},
	}, got)
}

func TestRotateShape_DoesNotMutateInput(t *testing.T) {
	in := NewPiece(TypeL, 0, 0).Shape
	snapshot := in.Clone()
	RotateShape(in)
	assert.Equal(t, snapshot, in)
}

func TestPiece_FourRotationsRestoreShape(t *testing.T) {
	for i := 0; i < PieceTypeCount; i++ {
		p := NewPiece(PieceType(i), 3, 5)
		r := p.Rotate().Rotate().Rotate().Rotate()
		assert.Equal(t, p.Shape, r.Shape, "piece %s", p.Type)
		assert.Equal(t, p.X, r.X)
		assert.Equal(t, p.Y, r.Y)
	}
}

func TestPiece_RotationSymmetries(t *testing.T) {
	o := NewPiece(TypeO, 0, 0)
	assert.Equal(t, o.Shape, o.Rotate().Shape)

	i := NewPiece(TypeI, 0, 0)
	assert.NotEqual(t, i.Shape, i.Rotate().Shape)
	assert.Equal(t, 4, i.Rotate().Height())
	assert.Equal(t, 1, i.Rotate().Width())
	assert.Equal(t, i.Shape, i.Rotate().Rotate().Shape)
}

func TestPiece_RotateKeepsAnchorAndOriginal(t *testing.T) {
	p := NewPiece(TypeS, 4, 7)
	original := p.Clone()

	r := p.Rotate()

	assert.Equal(t, 4, r.X)
	assert.Equal(t, 7, r.Y)
	assert.Equal(t, original, p)
}

func TestPiece_Translate(t *testing.T) {
	p := NewPiece(TypeZ, 4, 0)

	moved := p.Translate(-1, 2)

	assert.Equal(t, 3, moved.X)
	assert.Equal(t, 2, moved.Y)
	assert.Equal(t, p.Shape, moved.Shape)
	assert.Equal(t, 4, p.X, "translate must not modify the receiver")
	assert.Equal(t, 0, p.Y)
}

func TestRandomPiece_SpawnPosition(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		p := RandomPiece(r, BoardWidth)
		assert.Equal(t, 4, p.X)
		assert.Equal(t, 0, p.Y)
	}
}

func TestRandomPiece_CoversAllKinds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	counts := make(map[PieceType]int)
	const draws = 7000
	for i := 0; i < draws; i++ {
		counts[RandomPiece(r, BoardWidth).Type]++
	}

	require.Len(t, counts, PieceTypeCount)
	for pt, n := range counts {
		// 1/7 = 1000 回前後
		assert.InDelta(t, draws/PieceTypeCount, n, 200, "piece %s", pt)
	}
}

func TestPieceType_String(t *testing.T) {
	names := ""
	for i := 0; i < PieceTypeCount; i++ {
		names += PieceType(i).String()
	}
	assert.Equal(t, "IJLOSTZ", names)
	assert.Equal(t, "?", PieceType(99).String())
}
