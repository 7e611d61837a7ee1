package sqlstore

import (
	"context"
	"time"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/storage"
)

// Factory creates SQL stores for one dialect.
//
// SQLite reads the "path" key; PostgreSQL reads "dsn" and "connect_timeout".
type Factory struct {
	Dialect string
}

func (f Factory) Create(config storage.BackendConfig) (storage.Backend, error) {
	gc, ok := config.(storage.GenericConfig)
	if !ok {
		return nil, errors.ConfigError(f.Dialect + " storage requires a GenericConfig")
	}

	switch f.Dialect {
	case DialectSQLite:
		return OpenSQLite(gc.String("path", "./ratelimit.db"))
	case DialectPostgres:
		dsn := gc.String("dsn", "")
		if dsn == "" {
			return nil, errors.ConfigError("postgres dsn is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), gc.Duration("connect_timeout", 10*time.Second))
		defer cancel()
		return OpenPostgres(ctx, dsn)
	default:
		return nil, errors.ConfigError("unsupported dialect: " + f.Dialect)
	}
}

func (f Factory) GetType() string {
	return f.Dialect
}
