package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/minerace/server/internal/game"
)

type GameRow struct {
	GameId         uuid.UUID
	SeedKey        string
	Width          int
	Height         int
	CreatedAt      pgtype.Timestamptz
	EndedAt        pgtype.Timestamptz
	ElapsedSeconds float64
	Aborted        bool
}

type GamePlayerRow struct {
	GameId   uuid.UUID
	PlayerId uuid.UUID
	Winner   bool
	Exploded bool
}

// GameResult is one finished game with its per-player standings.
type GameResult struct {
	Game    GameRow
	Players []GamePlayerRow
}

// WriteResult persists one game record. Both inserts are idempotent so the
// sink may retry a partially applied write.
func (q Queries) WriteResult(ctx context.Context, rec game.Record) error {
	aborted := true
	for _, p := range rec.Players {
		if p.Winner {
			aborted = false
		}
	}
	_, err := q.db.Exec(
		ctx,
		`INSERT INTO game (
			game_id, seed_key, width, height,
			created_at, ended_at, elapsed_seconds, aborted
		)
		VALUES (
			@game_id, @seed_key, @width, @height,
			@created_at, @ended_at, @elapsed_seconds, @aborted
		)
		ON CONFLICT (game_id) DO NOTHING;`,
		pgx.NamedArgs{
			"game_id":         rec.GameID,
			"seed_key":        rec.SeedKey,
			"width":           rec.Width,
			"height":          rec.Height,
			"created_at":      rec.CreatedAt,
			"ended_at":        rec.EndedAt,
			"elapsed_seconds": rec.ElapsedSeconds,
			"aborted":         aborted,
		},
	)
	if err != nil {
		return fmt.Errorf("unable to insert game: %w", err)
	}
	for _, p := range rec.Players {
		_, err := q.db.Exec(
			ctx,
			`INSERT INTO game_player (game_id, player_id, winner, exploded)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_id, player_id) DO NOTHING;`,
			rec.GameID, p.PlayerID, p.Winner, p.Exploded,
		)
		if err != nil {
			return fmt.Errorf("unable to insert game player: %w", err)
		}
	}
	return nil
}

// FetchGame loads one persisted game record; pgx.ErrNoRows if unknown.
func (q Queries) FetchGame(
	ctx context.Context, gameId uuid.UUID,
) (*GameResult, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM game WHERE game_id = $1", gameId,
	)
	g, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[GameRow])
	if err != nil {
		return nil, err
	}
	rows, _ = q.db.Query(
		ctx,
		"SELECT * FROM game_player WHERE game_id = $1 ORDER BY player_id",
		gameId,
	)
	players, err := pgx.CollectRows(rows, pgx.RowToStructByName[GamePlayerRow])
	if err != nil {
		return nil, err
	}
	return &GameResult{Game: g, Players: players}, nil
}

// FetchPlayerGames lists a player's finished games, most recent first.
func (q Queries) FetchPlayerGames(
	ctx context.Context, playerId uuid.UUID, limit int,
) ([]GameRow, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT g.* FROM game g
		JOIN game_player gp ON gp.game_id = g.game_id
		WHERE gp.player_id = $1
		ORDER BY g.ended_at DESC
		LIMIT $2`,
		playerId, limit,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[GameRow])
}
