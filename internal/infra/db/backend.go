package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pickup-verification/internal/config"
	"pickup-verification/internal/domain/ports/repository"
	"pickup-verification/internal/infra/db/file"
	pg "pickup-verification/internal/infra/db/postgres"
)

// OpenSnapshotRepo picks the persistence backend named by cfg.Store.Backend.
// The memory backend returns a nil repository. The returned close func is
// never nil.
func OpenSnapshotRepo(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.CodeSnapshotRepository, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn().Msg("memory backend: codes are lost on exit")
		return nil, func() {}, nil
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, func() {}, fmt.Errorf("postgres: %w", err)
		}
		pg.ReportPoolStats(pool)
		logger.Info().Int32("max_conns", cfg.Database.MaxConns).Msg("using postgres backend")
		return pg.NewVerificationCodeRepo(pool), pool.Close, nil
	default:
		logger.Info().Str("path", cfg.Store.Path).Msg("using file backend")
		return file.NewSnapshotRepo(cfg.Store.Path), func() {}, nil
	}
}
