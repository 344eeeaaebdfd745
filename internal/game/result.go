package game

import (
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one player's final standing within a game record.
type PlayerResult struct {
	PlayerID uuid.UUID
	Winner   bool
	Exploded bool
}

// Record is the single artifact a finished game emits for persistence. The
// seed key alone reproduces the full mine layout.
type Record struct {
	GameID         uuid.UUID
	SeedKey        string
	Width          int
	Height         int
	CreatedAt      time.Time
	EndedAt        time.Time
	Players        []PlayerResult
	ElapsedSeconds float64
}

// ResultSink receives exactly one Record per finished game. Submit must not
// block: persistence runs off the game serializer and a write failure never
// rolls back the in-memory outcome.
type ResultSink interface {
	Submit(Record)
}
