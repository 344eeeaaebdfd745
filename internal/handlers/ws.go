package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/game"
	"github.com/minerace/server/internal/middleware"
	"github.com/minerace/server/internal/registry"
)

// Connect upgrades to a websocket and bridges it to a live game. Inbound
// frames are parsed as commands and handed to the game; outbound frames
// multiplex the game's diff stream with this connection's own replies
// through a single writer goroutine.
func (h Games) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	gameId, err := uuid.Parse(r.PathValue("game_id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(ErrBadGameId))
		return
	}
	g, err := h.registry.Get(gameId)
	if errors.Is(err, registry.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	c, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("unable to upgrade connection: ", err)
		return
	}
	defer c.Close()

	sub, err := g.Subscribe(claims.PlayerId)
	if err != nil {
		_ = c.WriteJSON(wrapError(err))
		return
	}
	defer sub.Close()

	log := h.log.WithFields(logrus.Fields{
		"game_id":   gameId,
		"player_id": claims.PlayerId,
	})
	log.Info("player connected")
	defer log.Info("player disconnected")

	replies := make(chan any, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					// dropped or game closed; tell the client and bail
					_ = c.WriteMessage(
						websocket.CloseMessage,
						websocket.FormatCloseMessage(
							websocket.CloseGoingAway, "stream closed",
						),
					)
					return
				}
				if err := c.WriteJSON(ev); err != nil {
					return
				}
			case v := <-replies:
				if err := c.WriteJSON(v); err != nil {
					return
				}
			}
		}
	}()

read:
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			) {
				log.Warn("websocket read: ", err)
			}
			break
		}
		cmd, err := game.ParseCommand(data)
		if err != nil {
			reply(replies, writerDone, wrapError(err))
			continue
		}
		switch cmd.Type {
		case game.CmdJoin:
			view, err := g.Join(claims.PlayerId)
			if err != nil {
				reply(replies, writerDone, wrapError(err))
				continue
			}
			reply(replies, writerDone,
				NewBoardDTO(g, claims.PlayerId.String(), view))
		case game.CmdLeave:
			break read
		default:
			if _, err := g.Apply(claims.PlayerId, cmd); err != nil {
				reply(replies, writerDone, wrapError(err))
			}
		}
	}
}

// reply hands a frame to the connection writer unless it already quit.
func reply(replies chan<- any, writerDone <-chan struct{}, v any) {
	select {
	case replies <- v:
	case <-writerDone:
	}
}
