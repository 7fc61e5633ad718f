package db

import (
	"errors"
	"fmt"
	"log/slog"

	domainerrors "todoapp/internal/domain/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending migration found in migratePath.
func Migration(dbDSN, migratePath string) error {
	if dbDSN == "" {
		return fmt.Errorf("%w: empty database DSN", domainerrors.ErrConfigInvalidFormat)
	}
	if migratePath == "" {
		return fmt.Errorf("%w: empty migrations path", domainerrors.ErrConfigInvalidFormat)
	}

	m, err := migrate.New("file://"+migratePath, dbDSN)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("migrations up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}
