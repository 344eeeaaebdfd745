package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/config"
)

type CtxKey int

const (
	CtxPlayerClaims CtxKey = iota
)

// Auth resolves the cookie pair to player claims and stashes them on the
// request context. Requests without valid claims pass through anonymous;
// handlers that need an identity enforce it themselves.
func Auth(log logrus.FieldLogger, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParsePlayerClaims(r)
			if err != nil {
				cookies.Clear(w)
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerClaims pulls authenticated claims off a request, if any.
func PlayerClaims(r *http.Request) (*config.PlayerClaims, bool) {
	claims, ok := r.Context().Value(CtxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}
