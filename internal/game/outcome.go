package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

type OutcomeKind int

const (
	Pending OutcomeKind = iota
	Winner
	Aborted
)

// Outcome is the terminal arbitration of a game. It leaves Pending exactly
// once; afterwards the game is read-only.
type Outcome struct {
	Kind     OutcomeKind
	WinnerID uuid.UUID
}

func (o Outcome) Terminal() bool { return o.Kind != Pending }

func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case Winner:
		return json.Marshal(struct {
			Status string    `json:"status"`
			Winner uuid.UUID `json:"winner"`
		}{"winner", o.WinnerID})
	case Aborted:
		return json.Marshal(struct {
			Status string `json:"status"`
		}{"aborted"})
	default:
		return json.Marshal(struct {
			Status string `json:"status"`
		}{"pending"})
	}
}
