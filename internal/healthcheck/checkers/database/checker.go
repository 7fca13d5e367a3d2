package dbchecker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rasaeel/rasaeel/internal/healthcheck"
)

const checkTypeDatabase = "database.ping"

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker pings the database.
type Checker struct {
	logger *slog.Logger
	db     Pinger
}

func NewChecker(log *slog.Logger, db Pinger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger: log.With(slog.String("checker", "healthcheck_database")),
		db:     db,
	}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	result := healthcheck.CheckResult{ID: checkTypeDatabase, Type: checkTypeDatabase}
	if c.db == nil {
		result.Status = healthcheck.StatusError
		result.Summary = "Database is not configured."
		return []healthcheck.CheckResult{result}
	}
	start := time.Now()
	if err := c.db.Ping(ctx); err != nil {
		c.logger.Warn("database ping failed", slog.Any("error", err))
		result.Status = healthcheck.StatusError
		result.Summary = "Database is unreachable."
		result.Detail = err.Error()
		return []healthcheck.CheckResult{result}
	}
	result.Status = healthcheck.StatusOK
	result.Summary = "Database is reachable."
	result.Metadata = map[string]any{"latency_ms": time.Since(start).Milliseconds()}
	return []healthcheck.CheckResult{result}
}
