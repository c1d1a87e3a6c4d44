package httpapi

import (
	"context"
	"sync/atomic"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/events"
	"jobscout-engine/internal/runner"
	"jobscout-engine/internal/store"
)

type Deps struct {
	DB       *store.DB
	Hub      *events.Hub
	Registry *connector.Registry

	// Single-profile engine: every API call acts as this user.
	UserID int64

	// Run entrypoint (inject for testability)
	RunAutomation func(ctx context.Context, a *domain.Automation) runner.Result

	// Atomic store of config.Config
	CfgVal *atomic.Value
}
