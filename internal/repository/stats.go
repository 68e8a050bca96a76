package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/anuhyanallapati/tic-tac-toe/internal/entity"
)

const (
	keyGamesPlayed = "stats:games_played"
	keyXWins       = "stats:wins:x"
	keyOWins       = "stats:wins:o"
	keyDraws       = "stats:draws"
)

var ErrUnknownResult = errors.New("unknown game result")

// StatsRepository keeps the aggregate results of the running deployment.
// These are live operational counters, not per-game history.
type StatsRepository interface {
	RecordResult(ctx context.Context, winner string) error
	Summary(ctx context.Context) (*entity.Stats, error)
}

type dbStats struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

// RecordResult bumps the counters for one finished game.
func (that *dbStats) RecordResult(ctx context.Context, winner string) error {
	var resultKey string

	switch winner {
	case entity.PlayerX:
		resultKey = keyXWins
	case entity.PlayerO:
		resultKey = keyOWins
	case entity.WinnerDraw:
		resultKey = keyDraws
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResult, winner)
	}

	pipe := that.client.TxPipeline()
	pipe.Incr(ctx, keyGamesPlayed)
	pipe.Incr(ctx, resultKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	return nil
}

// Summary reads the counters back; missing keys read as zero.
func (that *dbStats) Summary(ctx context.Context) (*entity.Stats, error) {
	values, err := that.client.MGet(ctx, keyGamesPlayed, keyXWins, keyOWins, keyDraws).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	return &entity.Stats{
		GamesPlayed: toCounter(values[0]),
		XWins:       toCounter(values[1]),
		OWins:       toCounter(values[2]),
		Draws:       toCounter(values[3]),
	}, nil
}

func toCounter(value any) int64 {
	raw, ok := value.(string)
	if !ok {
		return 0
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return n
}
