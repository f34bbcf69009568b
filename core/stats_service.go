package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Stats aggregates store counts for operational visibility.
type Stats struct {
	Credentials int64 `json:"credentials"`
	Tokens      int64 `json:"tokens"`
}

// redisScanner is the command surface the stats service needs from
// redis. *redis.Client satisfies it.
type redisScanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// StatsService reads aggregate counts straight off the infrastructure
// handles. It sits beside the auth ports, not behind them; it carries
// no auth logic.
type StatsService struct {
	db    *pgxpool.Pool
	redis redisScanner
}

func NewStatsService(db *pgxpool.Pool, redis redisScanner) *StatsService {
	return &StatsService{db: db, redis: redis}
}

// Overview counts registered credentials and live tokens. The token
// count walks SCAN and is approximate under concurrent writes.
func (s *StatsService) Overview(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&st.Credentials); err != nil {
		return Stats{}, err
	}

	iter := s.redis.Scan(ctx, 0, tokenKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		st.Tokens++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, err
	}
	return st, nil
}
