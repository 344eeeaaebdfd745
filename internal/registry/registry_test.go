package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerace/server/internal/game"
	"github.com/minerace/server/internal/mines"
)

func newTestRegistry(grace time.Duration) *Registry {
	return New(Config{GracePeriod: grace, SubscriberBuffer: 8})
}

// winGame drives a mine-free game to a winner outcome.
func winGame(t *testing.T, g *game.Game) {
	t.Helper()
	player := uuid.New()
	_, err := g.Join(player)
	require.NoError(t, err)
	_, err = g.Apply(player, game.Command{Type: game.CmdReveal})
	require.NoError(t, err)
	status, err := g.Status()
	require.NoError(t, err)
	require.True(t, status.Outcome.Terminal())
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRegistry(time.Minute)
	g, err := r.Create(mines.GameParams{Width: 4, Height: 4, MineProbability: 0.2})
	require.NoError(t, err)
	assert.Len(t, g.SeedKey, 4)

	got, err := r.Get(g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	// the key reproduces a valid layout
	_, err = mines.Decode(g.SeedKey, 4, 4)
	assert.NoError(t, err)
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry(time.Minute)
	_, err := r.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsInvalidParams(t *testing.T) {
	r := newTestRegistry(time.Minute)
	_, err := r.Create(mines.GameParams{Width: 0, Height: 4, MineProbability: 0.2})
	assert.ErrorIs(t, err, mines.ErrInvalidParameters)
	_, err = r.Create(mines.GameParams{Width: 4, Height: 4, MineProbability: 0.7})
	assert.ErrorIs(t, err, mines.ErrInvalidParameters)
}

func TestListActiveSkipsFinishedGames(t *testing.T) {
	r := newTestRegistry(time.Minute)
	pending, err := r.Create(mines.GameParams{Width: 3, Height: 3, MineProbability: 0})
	require.NoError(t, err)
	finished, err := r.Create(mines.GameParams{Width: 3, Height: 3, MineProbability: 0})
	require.NoError(t, err)
	winGame(t, finished)

	active := r.ListActive()
	require.Len(t, active, 1)
	assert.Same(t, pending, active[0])
}

func TestRetireAfterGracePeriod(t *testing.T) {
	r := newTestRegistry(10 * time.Millisecond)
	g, err := r.Create(mines.GameParams{Width: 2, Height: 2, MineProbability: 0})
	require.NoError(t, err)
	winGame(t, g)

	assert.Eventually(t, func() bool {
		_, err := r.Get(g.ID)
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)

	// retired games refuse everything
	_, err = g.Join(uuid.New())
	assert.ErrorIs(t, err, game.ErrClosed)
}

func TestRetireIsExplicitToo(t *testing.T) {
	r := newTestRegistry(time.Minute)
	g, err := r.Create(mines.GameParams{Width: 2, Height: 2, MineProbability: 0})
	require.NoError(t, err)

	r.Retire(g.ID)
	_, err = r.Get(g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	r.Retire(g.ID) // idempotent
}

func TestDrainRefusesCreations(t *testing.T) {
	r := newTestRegistry(time.Minute)
	g, err := r.Create(mines.GameParams{Width: 2, Height: 2, MineProbability: 0})
	require.NoError(t, err)
	winGame(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Drain(ctx)

	_, err = r.Create(mines.GameParams{Width: 2, Height: 2, MineProbability: 0})
	assert.ErrorIs(t, err, ErrDraining)
	_, err = r.Get(g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
