package mines

import (
	"errors"
	"strings"
)

// ErrInvalidKey reports a board key whose length, characters or padding do
// not match the board dimensions.
var ErrInvalidKey = errors.New("invalid board key")

const hexDigits = "0123456789abcdef"

// Encode packs a mine grid into a lowercase hex key. Bits are taken in
// row-major order, most significant bit of each nibble first; the final
// nibble is zero-padded. The key is the only persisted representation of a
// board layout.
func Encode(grid []bool) string {
	var b strings.Builder
	b.Grow((len(grid) + 3) / 4)
	for i := 0; i < len(grid); i += 4 {
		var nibble byte
		for j := range 4 {
			nibble <<= 1
			if i+j < len(grid) && grid[i+j] {
				nibble |= 1
			}
		}
		b.WriteByte(hexDigits[nibble])
	}
	return b.String()
}

// Decode is the exact inverse of [Encode] for a width*height board. The key
// must be exactly ceil(width*height/4) lowercase hex characters and any
// padding bits past the last cell must be zero.
func Decode(key string, width, height int) ([]bool, error) {
	cells := width * height
	if len(key) != (cells+3)/4 {
		return nil, ErrInvalidKey
	}
	grid := make([]bool, cells)
	for i := 0; i < len(key); i++ {
		v := strings.IndexByte(hexDigits, key[i])
		if v < 0 {
			return nil, ErrInvalidKey
		}
		for j := range 4 {
			if v&(8>>j) == 0 {
				continue
			}
			pos := i*4 + j
			if pos >= cells {
				return nil, ErrInvalidKey
			}
			grid[pos] = true
		}
	}
	return grid, nil
}
