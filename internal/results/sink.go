package results

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/game"
)

// Writer is the persistence boundary the sink retries against.
type Writer interface {
	WriteResult(ctx context.Context, rec game.Record) error
}

const (
	DefaultMaxAttempts  = 5
	DefaultBaseDelay    = 500 * time.Millisecond
	DefaultWriteTimeout = 10 * time.Second
)

type Config struct {
	Log          logrus.FieldLogger
	MaxAttempts  int
	BaseDelay    time.Duration
	WriteTimeout time.Duration
}

// Sink persists game records asynchronously, doubling the delay between
// attempts. A record that exhausts its attempts is logged and abandoned:
// the in-memory outcome stands regardless, this is an operator concern.
type Sink struct {
	cfg    Config
	writer Writer
	wg     sync.WaitGroup
}

func New(writer Writer, cfg Config) *Sink {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Sink{cfg: cfg, writer: writer}
}

// Submit hands one record over for persistence and returns immediately.
func (s *Sink) Submit(rec game.Record) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persist(rec)
	}()
}

func (s *Sink) persist(rec game.Record) {
	log := s.cfg.Log.WithField("game_id", rec.GameID)
	delay := s.cfg.BaseDelay
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(
			context.Background(), s.cfg.WriteTimeout,
		)
		err := s.writer.WriteResult(ctx, rec)
		cancel()
		if err == nil {
			log.Debug("game result persisted")
			return
		}
		log.WithField("attempt", attempt).Warn("result write failed: ", err)
		if attempt < s.cfg.MaxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	log.Error("result write abandoned after ", s.cfg.MaxAttempts, " attempts")
}

// Wait blocks until every submitted record has been resolved one way or the
// other. Used at shutdown.
func (s *Sink) Wait() {
	s.wg.Wait()
}
