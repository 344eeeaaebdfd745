package mines

import "errors"

var ErrBadCoordinate = errors.New("coordinate outside the board")

// ResultKind tags the effect a command had on a board.
type ResultKind int

const (
	NoChange ResultKind = iota
	Revealed
	FlagChanged
	Exploded
)

// CellDiff is one changed cell as reported to clients. Adjacent is
// meaningful only on revealed diffs.
type CellDiff struct {
	R        int   `json:"r"`
	C        int   `json:"c"`
	Adjacent uint8 `json:"adjacent"`
	Mine     bool  `json:"mine,omitempty"`
	Flagged  bool  `json:"flagged,omitempty"`
}

// Result is the authoritative outcome of a single board command.
type Result struct {
	Kind    ResultKind
	Cells   []CellDiff
	Cleared bool
}

// Board is a single player's stateful view of one game. Once Exploded or
// Cleared the board is terminal and every further command is a no-op.
type Board struct {
	width, height int
	cells         []Cell
	safeTotal     int
	safeRevealed  int
	exploded      bool
	cleared       bool
}

// NewBoard builds a board over a shared mine layout and its adjacency
// counts. The layout slices are copied into per-cell state, so several
// boards may be built from the same grid.
func NewBoard(grid []bool, counts []uint8, width, height int) *Board {
	cells := make([]Cell, len(grid))
	safe := 0
	for i := range grid {
		cells[i] = Cell{Mine: grid[i], Adjacent: counts[i]}
		if !grid[i] {
			safe++
		}
	}
	return &Board{
		width:     width,
		height:    height,
		cells:     cells,
		safeTotal: safe,
	}
}

// BoardFromKey reconstructs a fresh board from a persisted key.
func BoardFromKey(key string, params GameParams) (*Board, error) {
	grid, err := Decode(key, params.Width, params.Height)
	if err != nil {
		return nil, err
	}
	counts := AdjacencyCounts(grid, params.Width, params.Height)
	return NewBoard(grid, counts, params.Width, params.Height), nil
}

func (b *Board) Exploded() bool { return b.exploded }
func (b *Board) Cleared() bool  { return b.cleared }

// Terminal reports whether the board accepts no further commands.
func (b *Board) Terminal() bool { return b.exploded || b.cleared }

func (b *Board) inBounds(r, c int) bool {
	return 0 <= r && r < b.height && 0 <= c && c < b.width
}

// Reveal opens the cell at (r, c). Opening a mine detonates it and exposes
// only the detonated cell; opening a safe cell flood-fills through
// zero-adjacency regions. Flagged and already-revealed cells are no-ops.
func (b *Board) Reveal(r, c int) (Result, error) {
	if b.Terminal() {
		return Result{Kind: NoChange}, nil
	}
	if !b.inBounds(r, c) {
		return Result{}, ErrBadCoordinate
	}
	i := r*b.width + c
	if b.cells[i].Revealed || b.cells[i].Flagged {
		return Result{Kind: NoChange}, nil
	}
	if b.cells[i].Mine {
		b.cells[i].Revealed = true
		b.exploded = true
		return Result{
			Kind:  Exploded,
			Cells: []CellDiff{{R: r, C: c, Mine: true}},
		}, nil
	}
	diffs := b.flood(i)
	if b.safeRevealed == b.safeTotal {
		b.cleared = true
	}
	return Result{Kind: Revealed, Cells: diffs, Cleared: b.cleared}, nil
}

// flood reveals from start outwards. A revealed zero-adjacency cell enqueues
// its unrevealed, unflagged neighbours; the revealed bit doubles as the
// visited set, so the walk touches every cell at most once.
func (b *Board) flood(start int) []CellDiff {
	stack := []int{start}
	var diffs []CellDiff
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cell := &b.cells[i]
		if cell.Revealed || cell.Flagged {
			continue
		}
		cell.Revealed = true
		b.safeRevealed++
		r := i / b.width
		c := i % b.width
		diffs = append(diffs, CellDiff{R: r, C: c, Adjacent: cell.Adjacent})
		if cell.Adjacent != 0 {
			continue
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				rr := r + dr
				cc := c + dc
				if !b.inBounds(rr, cc) {
					continue
				}
				j := rr*b.width + cc
				if !b.cells[j].Revealed && !b.cells[j].Flagged {
					stack = append(stack, j)
				}
			}
		}
	}
	return diffs
}

// Flag toggles the flag on an unrevealed cell.
func (b *Board) Flag(r, c int) (Result, error) {
	if b.Terminal() {
		return Result{Kind: NoChange}, nil
	}
	if !b.inBounds(r, c) {
		return Result{}, ErrBadCoordinate
	}
	cell := &b.cells[r*b.width+c]
	if cell.Revealed {
		return Result{Kind: NoChange}, nil
	}
	cell.Flagged = !cell.Flagged
	return Result{
		Kind:  FlagChanged,
		Cells: []CellDiff{{R: r, C: c, Flagged: cell.Flagged}},
	}, nil
}

// Chord reveals every unflagged neighbour of a revealed cell whose flag
// count matches its adjacency. A misplaced flag may detonate a mine.
func (b *Board) Chord(r, c int) (Result, error) {
	if b.Terminal() {
		return Result{Kind: NoChange}, nil
	}
	if !b.inBounds(r, c) {
		return Result{}, ErrBadCoordinate
	}
	cell := b.cells[r*b.width+c]
	if !cell.Revealed || cell.Adjacent == 0 {
		return Result{Kind: NoChange}, nil
	}
	var flags uint8
	var targets [][2]int
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			rr := r + dr
			cc := c + dc
			if !b.inBounds(rr, cc) {
				continue
			}
			n := b.cells[rr*b.width+cc]
			if n.Flagged {
				flags++
			} else if !n.Revealed {
				targets = append(targets, [2]int{rr, cc})
			}
		}
	}
	if flags != cell.Adjacent {
		return Result{Kind: NoChange}, nil
	}
	out := Result{Kind: NoChange}
	for _, t := range targets {
		res, err := b.Reveal(t[0], t[1])
		if err != nil {
			return Result{}, err
		}
		switch res.Kind {
		case Revealed:
			if out.Kind != Exploded {
				out.Kind = Revealed
			}
			out.Cells = append(out.Cells, res.Cells...)
		case Exploded:
			out.Kind = Exploded
			out.Cells = append(out.Cells, res.Cells...)
		}
		if b.Terminal() {
			break
		}
	}
	out.Cleared = b.cleared
	return out, nil
}

// Snapshot projects the board for transmission to its owning player. It
// carries no information about unrevealed cells beyond their flag state.
func (b *Board) Snapshot() View {
	view := make(View, len(b.cells))
	for i, cell := range b.cells {
		switch {
		case cell.Revealed && cell.Mine:
			view[i] = ExplodedMine
		case cell.Revealed:
			view[i] = CellView(cell.Adjacent)
		case cell.Flagged:
			view[i] = Flag
		default:
			view[i] = Unknown
		}
	}
	return view
}
