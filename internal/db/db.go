package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"choiros-backend/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool against the first reachable database candidate.
// It exits the process when none can be reached.
func Connect(cfg *config.Config) *pgxpool.Pool {
	pool, err := ConnectWithFallback(context.Background(), cfg.Database)
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	return pool
}

// ConnectWithFallback tries the primary host and then each fallback in order.
func ConnectWithFallback(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	var lastErr error
	for _, host := range dbCfg.Candidates() {
		pool, err := open(ctx, dbCfg, host)
		if err != nil {
			log.Printf("[DB] %s unavailable: %v", host.Name, err)
			lastErr = err
			continue
		}
		log.Printf("[DB] Connected to %s", host.Name)
		return pool, nil
	}
	return nil, fmt.Errorf("no database reachable: %w", lastErr)
}

func open(ctx context.Context, dbCfg config.DatabaseConfig, host config.DatabaseHost) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.ConnectionString(host))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = dbCfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
