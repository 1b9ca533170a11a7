// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete store, so tests run
// against in-memory fakes and DB_DRIVER can swap sqlite for postgres.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codinggeeks/api/internal/cache"
	"github.com/codinggeeks/api/internal/model"
)

// UserDirectory resolves an email to its user record.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// ContributionLister lists the solutions owned by one internal user id.
type ContributionLister interface {
	ListSolutionsByContributor(ctx context.Context, userID string) ([]model.Solution, error)
}

// invalidate drops cached read models. A cache failure only costs freshness
// until the TTL runs out, so it is logged and never returned.
func invalidate(ctx context.Context, c *cache.Cache, logger *slog.Logger, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
