package handlers

import (
	"net/url"

	"github.com/gorilla/schema"

	"github.com/minerace/server/internal/game"
	"github.com/minerace/server/internal/mines"
	"github.com/minerace/server/internal/repository"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ParseGameParams decodes board parameters from a query string.
func ParseGameParams(src url.Values) (mines.GameParams, error) {
	var params mines.GameParams
	if err := queryDecoder.Decode(&params, src); err != nil {
		return mines.GameParams{}, err
	}
	return params, nil
}

type GameCreatedDTO struct {
	GameId  string `json:"game_id"`
	SeedKey string `json:"seed_key"`
}

// GameInfoDTO is the public summary of a live game. It never carries the
// seed key; a pending layout stays sealed.
type GameInfoDTO struct {
	GameId          string              `json:"game_id"`
	Width           int                 `json:"width"`
	Height          int                 `json:"height"`
	MineProbability float64             `json:"mine_probability"`
	CreatedAt       int64               `json:"created_at"`
	Outcome         game.Outcome        `json:"outcome"`
	Players         []game.PlayerStatus `json:"players"`
}

func NewGameInfoDTO(g *game.Game, status game.Status) GameInfoDTO {
	players := status.Players
	if players == nil {
		players = []game.PlayerStatus{}
	}
	return GameInfoDTO{
		GameId:          g.ID.String(),
		Width:           g.Params.Width,
		Height:          g.Params.Height,
		MineProbability: g.Params.MineProbability,
		CreatedAt:       g.CreatedAt.UnixMilli(),
		Outcome:         status.Outcome,
		Players:         players,
	}
}

type FinishedPlayerDTO struct {
	PlayerId string `json:"player_id"`
	Winner   bool   `json:"winner"`
	Exploded bool   `json:"exploded"`
}

// FinishedGameDTO is a persisted game record. Finished games reveal their
// seed key so the layout can be replayed.
type FinishedGameDTO struct {
	GameId         string              `json:"game_id"`
	SeedKey        string              `json:"seed_key"`
	Width          int                 `json:"width"`
	Height         int                 `json:"height"`
	CreatedAt      int64               `json:"created_at"`
	EndedAt        int64               `json:"ended_at"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
	Aborted        bool                `json:"aborted"`
	Players        []FinishedPlayerDTO `json:"players,omitempty"`
}

func newFinishedGameDTO(row repository.GameRow) FinishedGameDTO {
	return FinishedGameDTO{
		GameId:         row.GameId.String(),
		SeedKey:        row.SeedKey,
		Width:          row.Width,
		Height:         row.Height,
		CreatedAt:      row.CreatedAt.Time.UnixMilli(),
		EndedAt:        row.EndedAt.Time.UnixMilli(),
		ElapsedSeconds: row.ElapsedSeconds,
		Aborted:        row.Aborted,
	}
}

func NewFinishedGameDTO(res *repository.GameResult) FinishedGameDTO {
	dto := newFinishedGameDTO(res.Game)
	dto.Players = make([]FinishedPlayerDTO, 0, len(res.Players))
	for _, p := range res.Players {
		dto.Players = append(dto.Players, FinishedPlayerDTO{
			PlayerId: p.PlayerId.String(),
			Winner:   p.Winner,
			Exploded: p.Exploded,
		})
	}
	return dto
}

// BoardDTO is the private board snapshot a player receives over their own
// connection after a join command.
type BoardDTO struct {
	Type     string     `json:"type"`
	GameId   string     `json:"game_id"`
	PlayerId string     `json:"player_id"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Grid     mines.View `json:"grid"`
}

func NewBoardDTO(g *game.Game, playerId string, view mines.View) BoardDTO {
	return BoardDTO{
		Type:     "board",
		GameId:   g.ID.String(),
		PlayerId: playerId,
		Width:    g.Params.Width,
		Height:   g.Params.Height,
		Grid:     view,
	}
}
