package registry

import (
	"context"
	"errors"
	"hash/maphash"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/game"
	"github.com/minerace/server/internal/mines"
)

var (
	ErrNotFound = errors.New("game not found")
	ErrDraining = errors.New("registry is shutting down")
)

const DefaultGracePeriod = 30 * time.Second

type Config struct {
	Log              logrus.FieldLogger
	Sink             game.ResultSink
	SubscriberBuffer int
	GracePeriod      time.Duration
}

// Registry is the process-wide map of live games. Lookups take the shared
// lock; Create and Retire take the exclusive one. A terminal game lingers
// for a grace period so clients can still fetch its final state.
type Registry struct {
	cfg Config

	mu       sync.RWMutex
	rnd      *rand.Rand
	games    map[uuid.UUID]*game.Game
	draining bool
}

func New(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Registry{
		cfg: cfg,
		rnd: rand.New(rand.NewPCG(
			new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
		)),
		games: make(map[uuid.UUID]*game.Game),
	}
}

// Create validates params, seals a fresh mine layout and registers the
// game. The returned game carries the seed key the layout reproduces from.
func (r *Registry) Create(params mines.GameParams) (*game.Game, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return nil, ErrDraining
	}
	_, key := mines.Generate(params, r.rnd)
	g, err := game.New(params, key, game.Config{
		Log:              r.cfg.Log,
		Sink:             r.cfg.Sink,
		SubscriberBuffer: r.cfg.SubscriberBuffer,
		OnTerminal:       r.scheduleRetire,
	})
	if err != nil {
		return nil, err
	}
	r.games[g.ID] = g
	r.cfg.Log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"width":   params.Width,
		"height":  params.Height,
	}).Info("game created")
	return g, nil
}

func (r *Registry) scheduleRetire(g *game.Game) {
	time.AfterFunc(r.cfg.GracePeriod, func() {
		r.Retire(g.ID)
	})
}

func (r *Registry) Get(id uuid.UUID) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// ListActive enumerates games whose outcome is still pending. Game status
// is read outside the registry lock so a busy game never stalls lookups.
func (r *Registry) ListActive() []*game.Game {
	r.mu.RLock()
	all := make([]*game.Game, 0, len(r.games))
	for _, g := range r.games {
		all = append(all, g)
	}
	r.mu.RUnlock()

	var active []*game.Game
	for _, g := range all {
		status, err := g.Status()
		if err == nil && !status.Outcome.Terminal() {
			active = append(active, g)
		}
	}
	return active
}

// Retire drops a game from the registry and stops its serializer.
func (r *Registry) Retire(id uuid.UUID) {
	r.mu.Lock()
	g, ok := r.games[id]
	if ok {
		delete(r.games, id)
	}
	r.mu.Unlock()
	if ok {
		g.Close()
		r.cfg.Log.WithField("game_id", id).Info("game retired")
	}
}

// Drain refuses new creations, waits for in-flight games to reach an
// outcome (or the context to expire) and closes whatever is left.
func (r *Registry) Drain(ctx context.Context) {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for len(r.ListActive()) > 0 {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
		}
	}
	r.closeAll()
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	games := r.games
	r.games = make(map[uuid.UUID]*game.Game)
	r.mu.Unlock()
	for _, g := range games {
		g.Close()
	}
}
