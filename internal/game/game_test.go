package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerace/server/internal/mines"
)

type recordingSink struct {
	mu      sync.Mutex
	records []Record
}

func (s *recordingSink) Submit(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *recordingSink) all() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

func newTestGame(t *testing.T, params mines.GameParams, key string, sink ResultSink) *Game {
	t.Helper()
	g, err := New(params, key, Config{Sink: sink, SubscriberBuffer: 16})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

// 2x2 board with no mines
func allSafeGame(t *testing.T, sink ResultSink) *Game {
	return newTestGame(t, mines.GameParams{Width: 2, Height: 2}, "0", sink)
}

func TestNewGameRejectsBadInput(t *testing.T) {
	_, err := New(mines.GameParams{Width: 0, Height: 2}, "0", Config{})
	assert.ErrorIs(t, err, mines.ErrInvalidParameters)

	_, err = New(mines.GameParams{Width: 2, Height: 2}, "zz", Config{})
	assert.ErrorIs(t, err, mines.ErrInvalidKey)
}

func TestJoinHandsBackView(t *testing.T) {
	g := allSafeGame(t, nil)
	alice := uuid.New()

	view, err := g.Join(alice)
	require.NoError(t, err)
	assert.Equal(t, mines.View{
		mines.Unknown, mines.Unknown,
		mines.Unknown, mines.Unknown,
	}, view)
}

func TestMultiPlayerRace(t *testing.T) {
	sink := &recordingSink{}
	g := allSafeGame(t, sink)
	alice := uuid.New()
	bob := uuid.New()

	_, err := g.Join(alice)
	require.NoError(t, err)
	_, err = g.Join(bob)
	require.NoError(t, err)

	ev, err := g.Apply(alice, Command{Type: CmdReveal, R: 0, C: 0})
	require.NoError(t, err)
	assert.Equal(t, EventRevealed, ev.Type)
	assert.Len(t, ev.Cells, 4, "empty board floods fully")

	status, err := g.Status()
	require.NoError(t, err)
	assert.Equal(t, Winner, status.Outcome.Kind)
	assert.Equal(t, alice, status.Outcome.WinnerID)

	// the game is frozen: bob's move changes nothing
	_, err = g.Apply(bob, Command{Type: CmdReveal, R: 0, C: 0})
	assert.ErrorIs(t, err, ErrNotAllowed)

	// and late joins are refused
	_, err = g.Join(uuid.New())
	assert.ErrorIs(t, err, ErrNotAllowed)

	records := sink.all()
	require.Len(t, records, 1, "exactly one record per game")
	rec := records[0]
	assert.Equal(t, g.ID, rec.GameID)
	assert.Equal(t, "0", rec.SeedKey)
	assert.Equal(t, 2, rec.Width)
	assert.Equal(t, 2, rec.Height)
	require.Len(t, rec.Players, 2)
	assert.Equal(t, PlayerResult{PlayerID: alice, Winner: true}, rec.Players[0])
	assert.Equal(t, PlayerResult{PlayerID: bob}, rec.Players[1])
	assert.GreaterOrEqual(t, rec.ElapsedSeconds, 0.0)
}

func TestAbortWhenEveryoneExplodes(t *testing.T) {
	sink := &recordingSink{}
	// 1x2 board, mine at (0,0): bits 10, padded 1000 -> "8"
	g := newTestGame(t, mines.GameParams{Width: 2, Height: 1, MineProbability: 0.5}, "8", sink)
	alice := uuid.New()
	bob := uuid.New()
	_, err := g.Join(alice)
	require.NoError(t, err)
	_, err = g.Join(bob)
	require.NoError(t, err)

	ev, err := g.Apply(alice, Command{Type: CmdReveal, R: 0, C: 0})
	require.NoError(t, err)
	assert.Equal(t, EventExploded, ev.Type)

	status, err := g.Status()
	require.NoError(t, err)
	assert.Equal(t, Pending, status.Outcome.Kind, "bob is still playing")

	_, err = g.Apply(bob, Command{Type: CmdReveal, R: 0, C: 0})
	require.NoError(t, err)

	status, err = g.Status()
	require.NoError(t, err)
	assert.Equal(t, Aborted, status.Outcome.Kind)

	records := sink.all()
	require.Len(t, records, 1)
	for _, p := range records[0].Players {
		assert.True(t, p.Exploded)
		assert.False(t, p.Winner)
	}
}

func TestApplyFromStranger(t *testing.T) {
	g := allSafeGame(t, nil)
	_, err := g.Apply(uuid.New(), Command{Type: CmdReveal})
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestApplyBadCoordinate(t *testing.T) {
	g := allSafeGame(t, nil)
	alice := uuid.New()
	_, err := g.Join(alice)
	require.NoError(t, err)

	_, err = g.Apply(alice, Command{Type: CmdReveal, R: 5, C: 0})
	assert.ErrorIs(t, err, mines.ErrBadCoordinate)

	status, err := g.Status()
	require.NoError(t, err)
	assert.Equal(t, Pending, status.Outcome.Kind)
}

func TestRejoinKeepsBoard(t *testing.T) {
	// 3x3, mine at (0,0)
	g := newTestGame(t, mines.GameParams{Width: 3, Height: 3, MineProbability: 0.1}, "800", nil)
	alice := uuid.New()
	_, err := g.Join(alice)
	require.NoError(t, err)

	_, err = g.Apply(alice, Command{Type: CmdFlag, R: 0, C: 0})
	require.NoError(t, err)

	// leaving is a subscription concern; a second join must find the same board
	view, err := g.Join(alice)
	require.NoError(t, err)
	assert.Equal(t, mines.Flag, view[0])
}

func TestPlayerViewRequiresJoin(t *testing.T) {
	g := allSafeGame(t, nil)
	_, err := g.PlayerView(uuid.New())
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestClosedGameRefusesEverything(t *testing.T) {
	g := allSafeGame(t, nil)
	g.Close()
	g.Close() // idempotent

	_, err := g.Join(uuid.New())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = g.Status()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantErr bool
	}{
		{"reveal", `{"type":"reveal","r":1,"c":2}`, Command{Type: CmdReveal, R: 1, C: 2}, false},
		{"flag", `{"type":"flag","r":0,"c":0}`, Command{Type: CmdFlag}, false},
		{"chord", `{"type":"chord","r":3,"c":4}`, Command{Type: CmdChord, R: 3, C: 4}, false},
		{"join", `{"type":"join"}`, Command{Type: CmdJoin}, false},
		{"leave", `{"type":"leave"}`, Command{Type: CmdLeave}, false},
		{"unknown type", `{"type":"detonate"}`, Command{}, true},
		{"not json", `reveal 1 2`, Command{}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(test.payload))
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, cmd)
		})
	}
}

func TestOutcomeJSON(t *testing.T) {
	winner := uuid.New()
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Outcome{}, `{"status":"pending"}`},
		{Outcome{Kind: Aborted}, `{"status":"aborted"}`},
		{
			Outcome{Kind: Winner, WinnerID: winner},
			`{"status":"winner","winner":"` + winner.String() + `"}`,
		},
	}
	for _, test := range tests {
		data, err := test.outcome.MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, test.want, string(data))
	}
}
