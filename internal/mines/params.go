package mines

import "errors"

const (
	MinDimension       = 1
	MaxDimension       = 1024
	MaxMineProbability = 0.5
)

var ErrInvalidParameters = errors.New("invalid game parameters")

// GameParams describe one game. They are immutable for its lifetime; every
// player board of the game is derived from the same params and board key.
type GameParams struct {
	Width           int     `json:"width" schema:"width,required"`
	Height          int     `json:"height" schema:"height,required"`
	MineProbability float64 `json:"mine_probability" schema:"mine_probability,required"`
}

// Validate checks the creation bounds. The probability upper bound of 0.5
// is inclusive.
func (p GameParams) Validate() error {
	if p.Width < MinDimension || p.Width > MaxDimension {
		return ErrInvalidParameters
	}
	if p.Height < MinDimension || p.Height > MaxDimension {
		return ErrInvalidParameters
	}
	if p.MineProbability < 0 || p.MineProbability > MaxMineProbability {
		return ErrInvalidParameters
	}
	return nil
}

func (p GameParams) CellCount() int {
	return p.Width * p.Height
}

func (p GameParams) ValidatePoint(r, c int) bool {
	return 0 <= r && r < p.Height && 0 <= c && c < p.Width
}
