package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/minerace/server/internal/config"
	"github.com/minerace/server/internal/middleware"
	"github.com/minerace/server/internal/repository"
)

type Auth struct {
	log     logrus.FieldLogger
	repo    *repository.Queries
	cookies *config.Cookies
	jwt     *config.JWT
}

func NewAuth(
	log logrus.FieldLogger,
	repo *repository.Queries,
	cookies *config.Cookies,
	jwt *config.JWT,
) *Auth {
	return &Auth{
		log:     log,
		repo:    repo,
		cookies: cookies,
		jwt:     jwt,
	}
}

var (
	ErrBadAuthBody        = fmt.Errorf("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = fmt.Errorf("password too long")
	ErrUsernameTaken      = fmt.Errorf("username taken")
	ErrBadCredentials     = fmt.Errorf("unknown username or bad password")
)

type PlayerInfo struct {
	PlayerId string `json:"player_id"`
	Username string `json:"username"`
}

type AuthStatus struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

func (a Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.log, AuthStatus{LoggedIn: false})
		return
	}
	token, err := a.jwt.Sign(claims)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to re-sign checked claims: ", err)
		return
	}
	if err := a.cookies.Refresh(w, token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to refresh auth cookies: ", err)
		return
	}
	sendJSONOrLog(w, a.log, AuthStatus{
		LoggedIn: true,
		Player: &PlayerInfo{
			PlayerId: claims.PlayerId.String(),
			Username: claims.Username,
		},
	})
}

func (a Auth) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, a.log, wrapError(ErrBadAuthBody))
		return
	}

	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, a.log, wrapError(ErrBadPasswordTooLong))
		return
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes, bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to hash password: ", err)
		return
	}

	player, err := a.repo.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		w.WriteHeader(http.StatusConflict)
		sendJSONOrLog(w, a.log, wrapError(ErrUsernameTaken))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to insert player: ", err)
		return
	}

	a.refresh(w, player)
}

func (a Auth) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, a.log, wrapError(ErrBadAuthBody))
		return
	}

	player, err := a.repo.FetchPlayer(r.Context(), username)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.log, wrapError(ErrBadCredentials))
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to fetch player: ", err)
		return
	}

	err = bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.log, wrapError(ErrBadCredentials))
		return
	}

	a.refresh(w, player)
}

func (a Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a Auth) refresh(w http.ResponseWriter, player *repository.Player) {
	token, err := a.jwt.Sign(
		config.NewPlayerClaims(player.PlayerId, player.Username),
	)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to create a jwt token: ", err)
		return
	}
	if err := a.cookies.Refresh(w, token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.Error("unable to refresh auth cookies: ", err)
		return
	}
	sendJSONOrLog(w, a.log, PlayerInfo{
		PlayerId: player.PlayerId.String(),
		Username: player.Username,
	})
}
