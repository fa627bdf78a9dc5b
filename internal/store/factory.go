package store

import (
	"context"
	"fmt"

	"github.com/welltegra/welltegra-api/internal/config"
	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/store/postgres"
	"github.com/welltegra/welltegra-api/internal/store/sqlite"
	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Open builds the record store selected by cfg.Driver. The returned close
// function is always non-nil and releases any underlying handles.
func Open(ctx context.Context, cfg config.Store) (toolstring.Store, func() error, error) {
	switch cfg.Driver {
	case "memory":
		ds, err := dataset.Load(cfg.Dataset)
		if err != nil {
			return nil, nil, err
		}
		return MemoryFromDataset(ds), func() error { return nil }, nil

	case "sqlite":
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil

	case "postgres":
		st, err := postgres.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil

	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
