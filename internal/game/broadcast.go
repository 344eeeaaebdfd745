package game

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Subscriber receives every diff of one game, in applied-command order,
// over a bounded channel. A subscriber that stops draining is dropped once
// its buffer fills; its channel is closed on drop and on game close.
type Subscriber struct {
	PlayerID uuid.UUID

	game *Game
	ch   chan Event
}

// Events yields diffs until the subscriber is dropped, closed or the game
// is closed.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Close cancels the subscription. Board state is untouched; the player may
// reconnect and rejoin until the outcome is terminal.
func (s *Subscriber) Close() {
	// ErrClosed means the game already closed the channel
	_ = s.game.do(func() {
		s.game.unsubscribe(s)
	})
}

// Subscribe attaches a diff stream for one connected player.
func (g *Game) Subscribe(playerID uuid.UUID) (*Subscriber, error) {
	return g.subscribeWithBuffer(playerID, g.cfg.SubscriberBuffer)
}

func (g *Game) subscribeWithBuffer(playerID uuid.UUID, size int) (*Subscriber, error) {
	sub := &Subscriber{
		PlayerID: playerID,
		game:     g,
		ch:       make(chan Event, size),
	}
	if err := g.do(func() { g.subs[sub] = struct{}{} }); err != nil {
		return nil, err
	}
	return sub, nil
}

// unsubscribe runs on the serializer.
func (g *Game) unsubscribe(s *Subscriber) {
	if _, ok := g.subs[s]; ok {
		delete(g.subs, s)
		close(s.ch)
	}
}

// broadcast fans one event out to every subscriber without blocking. A full
// buffer drops that subscriber and announces the drop to the rest; the game
// carries on for the remaining players. Runs on the serializer.
func (g *Game) broadcast(ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for sub := range g.subs {
			select {
			case sub.ch <- next:
			default:
				g.unsubscribe(sub)
				g.cfg.Log.WithFields(logrus.Fields{
					"game_id":   g.ID,
					"player_id": sub.PlayerID,
				}).Warn("subscriber buffer overflow, dropping")
				queue = append(queue, Event{
					Type:     EventSubscriberDropped,
					PlayerID: sub.PlayerID,
				})
			}
		}
	}
}
