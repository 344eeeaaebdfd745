package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/minerace/server/internal/config"
	"github.com/minerace/server/internal/database"
	"github.com/minerace/server/internal/registry"
	"github.com/minerace/server/internal/repository"
	"github.com/minerace/server/internal/results"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	log      logrus.FieldLogger
	db       *pgxpool.Pool
	registry *registry.Registry
	sink     *results.Sink
	handler  http.Handler
}

// New connects to the database, runs migrations and wires every layer
// together. The returned app is ready to Start.
func New(ctx context.Context, log logrus.FieldLogger) (*App, error) {
	db, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to set up database: %w", err)
	}

	jwt, err := config.NewJWT()
	if err != nil {
		return nil, fmt.Errorf("unable to load JWT config: %w", err)
	}
	cookies, err := config.NewCookies(jwt)
	if err != nil {
		return nil, fmt.Errorf("unable to load cookies config: %w", err)
	}
	ws, err := config.NewWebSocket()
	if err != nil {
		return nil, fmt.Errorf("unable to load websocket config: %w", err)
	}
	subscriberBuffer, err := config.SubscriberBuffer()
	if err != nil {
		return nil, err
	}

	repo := repository.New(db)
	sink := results.New(repo, results.Config{Log: log})
	reg := registry.New(registry.Config{
		Log:              log,
		Sink:             sink,
		SubscriberBuffer: subscriberBuffer,
	})

	a := &App{
		log:      log,
		db:       db,
		registry: reg,
		sink:     sink,
	}
	a.handler = a.routes(repo, cookies, jwt, ws)
	return a, nil
}

// Start serves until ctx is cancelled, then drains live games, shuts the
// server down and waits for pending result writes.
func (a *App) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    config.Addr(),
		Handler: a.handler,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		a.log.Info("listening on ", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		a.registry.Drain(shutdownCtx)
		err := server.Shutdown(shutdownCtx)
		a.sink.Wait()
		a.db.Close()
		return err
	})

	return eg.Wait()
}
