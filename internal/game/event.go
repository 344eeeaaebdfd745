package game

import (
	"github.com/google/uuid"

	"github.com/minerace/server/internal/mines"
)

type EventType string

const (
	EventJoined            EventType = "joined"
	EventRevealed          EventType = "revealed"
	EventFlagged           EventType = "flagged"
	EventExploded          EventType = "exploded"
	EventCleared           EventType = "cleared"
	EventOutcome           EventType = "outcome"
	EventSubscriberDropped EventType = "subscriber_dropped"
)

// Event is one outbound diff. Every event is broadcast to all subscribers
// of its game, in the order the game applied the originating commands.
// PlayerID names the acting (or, for drops, the dropped) player.
type Event struct {
	Type     EventType        `json:"type"`
	PlayerID uuid.UUID        `json:"player_id"`
	Cells    []mines.CellDiff `json:"cells,omitempty"`
	Outcome  *Outcome         `json:"outcome,omitempty"`
}
