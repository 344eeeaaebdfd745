package app

import (
	"net/http"

	"github.com/minerace/server/internal/config"
	"github.com/minerace/server/internal/handlers"
	"github.com/minerace/server/internal/middleware"
	"github.com/minerace/server/internal/repository"
)

func (a *App) routes(
	repo *repository.Queries,
	cookies *config.Cookies,
	jwt *config.JWT,
	ws *config.WebSocket,
) http.Handler {
	auth := handlers.NewAuth(a.log, repo, cookies, jwt)
	games := handlers.NewGames(a.log, repo, a.registry, ws)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/status", auth.Status)

	mux.HandleFunc("POST /game", games.Create)
	mux.HandleFunc("GET /games", games.List)
	mux.HandleFunc("GET /game/{game_id}", games.Fetch)
	mux.HandleFunc("GET /game/{game_id}/board", games.View)
	mux.HandleFunc("GET /game/{game_id}/connect", games.Connect)
	mux.HandleFunc("GET /player/games", games.History)

	return middleware.Wrap(
		mux,
		middleware.Auth(a.log, cookies),
		middleware.Cors(),
		middleware.Logging(a.log),
	)
}
