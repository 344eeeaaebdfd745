package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/config"
	"github.com/minerace/server/internal/game"
	"github.com/minerace/server/internal/middleware"
	"github.com/minerace/server/internal/mines"
	"github.com/minerace/server/internal/registry"
	"github.com/minerace/server/internal/repository"
)

type Games struct {
	log      logrus.FieldLogger
	registry *registry.Registry
	repo     *repository.Queries
	ws       *config.WebSocket
}

func NewGames(
	log logrus.FieldLogger,
	repo *repository.Queries,
	reg *registry.Registry,
	ws *config.WebSocket,
) *Games {
	return &Games{
		log:      log,
		registry: reg,
		repo:     repo,
		ws:       ws,
	}
}

var ErrBadGameId = errors.New("malformed game id")

func (h Games) Create(w http.ResponseWriter, r *http.Request) {
	params, err := ParseGameParams(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(err))
		return
	}
	g, err := h.registry.Create(params)
	if errors.Is(err, mines.ErrInvalidParameters) {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(err))
		return
	}
	if errors.Is(err, registry.ErrDraining) {
		w.WriteHeader(http.StatusServiceUnavailable)
		sendJSONOrLog(w, h.log, wrapError(err))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to create game: ", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	sendJSONOrLog(w, h.log, GameCreatedDTO{
		GameId:  g.ID.String(),
		SeedKey: g.SeedKey,
	})
}

func (h Games) List(w http.ResponseWriter, r *http.Request) {
	games := h.registry.ListActive()
	dtos := make([]GameInfoDTO, 0, len(games))
	for _, g := range games {
		status, err := g.Status()
		if err != nil {
			continue
		}
		dtos = append(dtos, NewGameInfoDTO(g, status))
	}
	sendJSONOrLog(w, h.log, dtos)
}

// Fetch serves a game by id, live if it is still registered, otherwise from
// the result store.
func (h Games) Fetch(w http.ResponseWriter, r *http.Request) {
	gameId, err := uuid.Parse(r.PathValue("game_id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(ErrBadGameId))
		return
	}

	if g, err := h.registry.Get(gameId); err == nil {
		status, err := g.Status()
		if err == nil {
			sendJSONOrLog(w, h.log, NewGameInfoDTO(g, status))
			return
		}
	}

	res, err := h.repo.FetchGame(r.Context(), gameId)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to fetch game: ", err)
		return
	}
	sendJSONOrLog(w, h.log, NewFinishedGameDTO(res))
}

// History lists the requester's finished games, most recent first.
func (h Games) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit = min(n, 100)
	}

	rows, err := h.repo.FetchPlayerGames(r.Context(), claims.PlayerId, limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to fetch player games: ", err)
		return
	}
	dtos := make([]FinishedGameDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, newFinishedGameDTO(row))
	}
	sendJSONOrLog(w, h.log, dtos)
}

// View serves the requester's own board snapshot in a live game.
func (h Games) View(w http.ResponseWriter, r *http.Request) {
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
	view, err := g.PlayerView(claims.PlayerId)
	if errors.Is(err, game.ErrNotAllowed) || errors.Is(err, game.ErrClosed) {
		w.WriteHeader(http.StatusForbidden)
		sendJSONOrLog(w, h.log, wrapError(err))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("unable to build player view: ", err)
		return
	}
	sendJSONOrLog(w, h.log, NewBoardDTO(g, claims.PlayerId.String(), view))
}
