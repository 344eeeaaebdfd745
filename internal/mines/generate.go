package mines

import "math/rand/v2"

// Generate rolls each cell independently: a cell holds a mine with
// probability params.MineProbability. The rand source is a parameter so
// callers (and tests) control determinism. Returns the grid and its key.
//
// There is no first-click safety: the server never learns a "first" cell,
// every player starts from the same sealed layout.
func Generate(params GameParams, r *rand.Rand) ([]bool, string) {
	grid := make([]bool, params.CellCount())
	for i := range grid {
		grid[i] = r.Float64() < params.MineProbability
	}
	return grid, Encode(grid)
}

// AdjacencyCounts computes, for every non-mine cell, the number of mines in
// its Moore neighborhood, clipped at the board edges. Mine cells count 0.
func AdjacencyCounts(grid []bool, width, height int) []uint8 {
	counts := make([]uint8, len(grid))
	for y := range height {
		for x := range width {
			i := y*width + x
			if grid[i] {
				continue
			}
			var n uint8
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					xx := x + dx
					yy := y + dy
					if xx >= 0 && xx < width &&
						yy >= 0 && yy < height &&
						grid[yy*width+xx] {
						n++
					}
				}
			}
			counts[i] = n
		}
	}
	return counts
}
