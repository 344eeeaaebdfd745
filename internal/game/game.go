package game

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/mines"
)

var (
	ErrNotAllowed = errors.New("command not allowed")
	ErrClosed     = errors.New("game is closed")
)

const DefaultSubscriberBuffer = 64

// Config carries the game-independent collaborators. OnTerminal fires once,
// on the game's serializer, right after the outcome leaves Pending.
type Config struct {
	Log              logrus.FieldLogger
	Sink             ResultSink
	SubscriberBuffer int
	OnTerminal       func(*Game)
}

// Game is one live game: a shared sealed layout plus an independently
// hidden board per player. A single serializer goroutine owns all mutable
// state and services every exported method, so commands form a total order
// per game and readers always observe consistent state.
type Game struct {
	ID        uuid.UUID
	Params    mines.GameParams
	SeedKey   string
	CreatedAt time.Time

	cfg    Config
	grid   []bool
	counts []uint8

	ops       chan func()
	closed    chan struct{}
	closeOnce sync.Once

	// serializer-owned
	players map[uuid.UUID]*mines.Board
	order   []uuid.UUID
	subs    map[*Subscriber]struct{}
	outcome Outcome
	endedAt time.Time
}

// New builds a live game over an encoded layout and starts its serializer.
func New(params mines.GameParams, seedKey string, cfg Config) (*Game, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	grid, err := mines.Decode(seedKey, params.Width, params.Height)
	if err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultSubscriberBuffer
	}
	g := &Game{
		ID:        uuid.New(),
		Params:    params,
		SeedKey:   seedKey,
		CreatedAt: time.Now().UTC(),
		cfg:       cfg,
		grid:      grid,
		counts:    mines.AdjacencyCounts(grid, params.Width, params.Height),
		ops:       make(chan func()),
		closed:    make(chan struct{}),
		players:   make(map[uuid.UUID]*mines.Board),
		subs:      make(map[*Subscriber]struct{}),
	}
	go g.run()
	return g, nil
}

func (g *Game) run() {
	for {
		select {
		case op := <-g.ops:
			op()
		case <-g.closed:
			for sub := range g.subs {
				close(sub.ch)
			}
			g.subs = nil
			return
		}
	}
}

// do runs op on the serializer and waits for it to finish.
func (g *Game) do(op func()) error {
	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}
	select {
	case g.ops <- wrapped:
		<-done
		return nil
	case <-g.closed:
		return ErrClosed
	}
}

// Close stops the serializer and closes all subscriber channels. Safe to
// call more than once.
func (g *Game) Close() {
	g.closeOnce.Do(func() { close(g.closed) })
}

// Join admits a player (or re-admits a returning one) while the outcome is
// pending and hands back their current view.
func (g *Game) Join(playerID uuid.UUID) (mines.View, error) {
	var view mines.View
	var joinErr error
	err := g.do(func() {
		if g.outcome.Terminal() {
			joinErr = ErrNotAllowed
			return
		}
		board, ok := g.players[playerID]
		if !ok {
			board = mines.NewBoard(
				g.grid, g.counts, g.Params.Width, g.Params.Height,
			)
			g.players[playerID] = board
			g.order = append(g.order, playerID)
			g.broadcast(Event{Type: EventJoined, PlayerID: playerID})
		}
		view = board.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return view, joinErr
}

// Apply routes one cell command to its player's board, broadcasts the
// resulting diff and arbitrates the outcome. A command from a player who
// never joined, or any command after the outcome is terminal, is rejected
// with ErrNotAllowed and changes nothing.
func (g *Game) Apply(playerID uuid.UUID, cmd Command) (Event, error) {
	var ev Event
	var applyErr error
	err := g.do(func() {
		if g.outcome.Terminal() {
			applyErr = ErrNotAllowed
			return
		}
		board, ok := g.players[playerID]
		if !ok {
			applyErr = ErrNotAllowed
			return
		}
		var res mines.Result
		switch cmd.Type {
		case CmdReveal:
			res, applyErr = board.Reveal(cmd.R, cmd.C)
		case CmdFlag:
			res, applyErr = board.Flag(cmd.R, cmd.C)
		case CmdChord:
			res, applyErr = board.Chord(cmd.R, cmd.C)
		default:
			applyErr = ErrNotAllowed
		}
		if applyErr != nil {
			return
		}
		ev = g.emit(playerID, res)
	})
	if err != nil {
		return Event{}, err
	}
	return ev, applyErr
}

// emit translates a board result into broadcast diffs and re-evaluates the
// outcome. Runs on the serializer. NoChange results emit nothing.
func (g *Game) emit(playerID uuid.UUID, res mines.Result) Event {
	var ev Event
	switch res.Kind {
	case mines.Revealed:
		ev = Event{Type: EventRevealed, PlayerID: playerID, Cells: res.Cells}
	case mines.FlagChanged:
		ev = Event{Type: EventFlagged, PlayerID: playerID, Cells: res.Cells}
	case mines.Exploded:
		ev = Event{Type: EventExploded, PlayerID: playerID, Cells: res.Cells}
	default:
		return Event{}
	}
	g.broadcast(ev)
	if res.Cleared {
		g.broadcast(Event{Type: EventCleared, PlayerID: playerID})
	}
	g.evaluateOutcome()
	return ev
}

// evaluateOutcome runs after every state-mutating command. The serializer
// guarantees at most one board clears per command, so the earliest clear
// wins; if every joined player has exploded the game aborts.
func (g *Game) evaluateOutcome() {
	if g.outcome.Terminal() || len(g.players) == 0 {
		return
	}
	exploded := 0
	for _, id := range g.order {
		board := g.players[id]
		if board.Cleared() {
			g.finish(Outcome{Kind: Winner, WinnerID: id})
			return
		}
		if board.Exploded() {
			exploded++
		}
	}
	if exploded == len(g.players) {
		g.finish(Outcome{Kind: Aborted})
	}
}

// finish records the one and only outcome transition, freezes the game and
// hands the result record to the sink. Runs on the serializer.
func (g *Game) finish(outcome Outcome) {
	g.outcome = outcome
	g.endedAt = time.Now().UTC()
	g.broadcast(Event{
		Type:     EventOutcome,
		PlayerID: outcome.WinnerID,
		Outcome:  &outcome,
	})
	g.cfg.Log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"outcome": outcome.Kind,
	}).Info("game finished")
	if g.cfg.Sink != nil {
		g.cfg.Sink.Submit(g.buildRecord())
	}
	if g.cfg.OnTerminal != nil {
		g.cfg.OnTerminal(g)
	}
}

func (g *Game) buildRecord() Record {
	players := make([]PlayerResult, 0, len(g.order))
	for _, id := range g.order {
		board := g.players[id]
		players = append(players, PlayerResult{
			PlayerID: id,
			Winner:   g.outcome.Kind == Winner && g.outcome.WinnerID == id,
			Exploded: board.Exploded(),
		})
	}
	return Record{
		GameID:         g.ID,
		SeedKey:        g.SeedKey,
		Width:          g.Params.Width,
		Height:         g.Params.Height,
		CreatedAt:      g.CreatedAt,
		EndedAt:        g.endedAt,
		Players:        players,
		ElapsedSeconds: g.endedAt.Sub(g.CreatedAt).Seconds(),
	}
}

// PlayerView returns a consistent, client-safe view of one player's board.
func (g *Game) PlayerView(playerID uuid.UUID) (mines.View, error) {
	var view mines.View
	var viewErr error
	err := g.do(func() {
		board, ok := g.players[playerID]
		if !ok {
			viewErr = ErrNotAllowed
			return
		}
		view = board.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return view, viewErr
}

// PlayerStatus is one player's public standing; it exposes no cell data.
type PlayerStatus struct {
	PlayerID uuid.UUID `json:"player_id"`
	Exploded bool      `json:"exploded"`
	Cleared  bool      `json:"cleared"`
}

// Status is a consistent public summary of a game.
type Status struct {
	Outcome Outcome        `json:"outcome"`
	Players []PlayerStatus `json:"players"`
	EndedAt time.Time      `json:"-"`
}

func (g *Game) Status() (Status, error) {
	var status Status
	err := g.do(func() {
		status.Outcome = g.outcome
		status.EndedAt = g.endedAt
		for _, id := range g.order {
			board := g.players[id]
			status.Players = append(status.Players, PlayerStatus{
				PlayerID: id,
				Exploded: board.Exploded(),
				Cleared:  board.Cleared(),
			})
		}
	})
	return status, err
}
