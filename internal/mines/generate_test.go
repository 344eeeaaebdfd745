package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateZeroProbability(t *testing.T) {
	params := GameParams{Width: 9, Height: 9, MineProbability: 0}
	grid, key := Generate(params, rand.New(rand.NewPCG(1, 2)))
	for i, mine := range grid {
		assert.False(t, mine, "cell %d", i)
	}
	decoded, err := Decode(key, params.Width, params.Height)
	require.NoError(t, err)
	assert.Equal(t, grid, decoded)
}

func TestGenerateDeterministic(t *testing.T) {
	params := GameParams{Width: 30, Height: 16, MineProbability: 0.2}
	_, key1 := Generate(params, rand.New(rand.NewPCG(3, 4)))
	_, key2 := Generate(params, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, key1, key2)
}

func TestGenerateMaxBoard(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	params := GameParams{Width: 1024, Height: 1024, MineProbability: 0.5}
	grid, key := Generate(params, rand.New(rand.NewPCG(5, 6)))
	assert.Len(t, grid, 1024*1024)
	assert.Len(t, key, 1024*1024/4)
}

func TestAdjacencyCounts(t *testing.T) {
	// single mine in the top-left corner of a 3x3 board
	grid := []bool{
		true, false, false,
		false, false, false,
		false, false, false,
	}
	want := []uint8{
		0, 1, 0,
		1, 1, 0,
		0, 0, 0,
	}
	assert.Equal(t, want, AdjacencyCounts(grid, 3, 3))
}

func TestAdjacencyCountsClipped(t *testing.T) {
	// 2x2, three mines around a single safe cell
	grid := []bool{
		true, true,
		true, false,
	}
	counts := AdjacencyCounts(grid, 2, 2)
	assert.Equal(t, uint8(3), counts[3])
	assert.Equal(t, uint8(0), counts[0], "mine cells count 0")
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params GameParams
		ok     bool
	}{
		{"minimal", GameParams{Width: 1, Height: 1, MineProbability: 0}, true},
		{"maximal", GameParams{Width: 1024, Height: 1024, MineProbability: 0.5}, true},
		{"probability upper bound is inclusive", GameParams{Width: 9, Height: 9, MineProbability: 0.5}, true},
		{"zero width", GameParams{Width: 0, Height: 9, MineProbability: 0.1}, false},
		{"zero height", GameParams{Width: 9, Height: 0, MineProbability: 0.1}, false},
		{"width too large", GameParams{Width: 1025, Height: 9, MineProbability: 0.1}, false},
		{"height too large", GameParams{Width: 9, Height: 1025, MineProbability: 0.1}, false},
		{"negative probability", GameParams{Width: 9, Height: 9, MineProbability: -0.1}, false},
		{"probability too high", GameParams{Width: 9, Height: 9, MineProbability: 0.51}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.params.Validate()
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			}
		})
	}
}
