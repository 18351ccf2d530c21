package types

import (
	"go.uber.org/zap"

	"github.com/killallgit/study-api/internal/database"
	"github.com/killallgit/study-api/internal/metrics"
	"github.com/killallgit/study-api/internal/services/activity"
	"github.com/killallgit/study-api/internal/services/studies"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	Store    studies.Store
	Activity activity.Service // nil when the activity database is disabled
	DB       *database.DB
	Metrics  *metrics.Metrics // nil when monitoring is disabled
	Logger   *zap.Logger

	// PublicURL is used for model urls when the request carries no Host
	PublicURL string
	Port      int
}

// Log returns the configured logger or a no-op logger
func (d *Dependencies) Log() *zap.Logger {
	if d == nil || d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
