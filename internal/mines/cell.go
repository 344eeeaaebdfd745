package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is one square of a player's board. Adjacent is fixed at generation;
// Revealed is monotonic and a cell is never both revealed and flagged.
type Cell struct {
	Mine     bool
	Adjacent uint8
	Revealed bool
	Flagged  bool
}

// CellView is the client-safe projection of a single cell.
type CellView int8

const (
	Unknown      CellView = -2
	Flag         CellView = -1
	ExplodedMine CellView = 64
	// 0-8 for a revealed cell with that many mined neighbours
)

func (v CellView) String() string {
	switch v {
	case Unknown:
		return " "
	case Flag:
		return "*"
	case ExplodedMine:
		return "!"
	case 0, 1, 2, 3, 4, 5, 6, 7, 8:
		return strconv.Itoa(int(v))
	default:
		return "?"
	}
}

// View is a whole-board projection in row-major order.
type View []CellView

func (v View) ToString(width int) string {
	var b strings.Builder
	for y := range len(v) / width {
		for x := range width {
			fmt.Fprint(&b, v[y*width+x].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
