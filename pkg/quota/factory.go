package quota

import (
	"fmt"

	"github.com/forumlab/agora/pkg/config"
)

// NewGuardFromConfig creates a Guard from configuration.
// If the quota is disabled, returns nil.
//
// Example config:
//
//	quota:
//	  enabled: true
//	  daily_limit: 50
//	  backend: sql
//	  database:
//	    driver: sqlite
//	    database: ./.agora/agora.db
func NewGuardFromConfig(cfg *config.QuotaConfig, pool *config.DBPool) (*Guard, error) {
	if cfg == nil || !cfg.IsEnabled() {
		return nil, nil
	}

	var store UsageStore

	switch cfg.Backend {
	case "sql":
		if pool == nil {
			return nil, fmt.Errorf("DBPool is required for SQL quota backend")
		}
		if cfg.Database == nil {
			return nil, fmt.Errorf("quota.database is required when backend is sql")
		}

		db, err := pool.Get(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}

		store, err = NewSQLStore(db, cfg.Database.Dialect())
		if err != nil {
			return nil, fmt.Errorf("failed to create SQL store: %w", err)
		}
	case "memory", "":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported quota backend: %s", cfg.Backend)
	}

	var opts []GuardOption
	if cfg.FailOpen {
		opts = append(opts, WithFailOpen())
	}

	return NewGuard(cfg.Limit(), store, opts...)
}
