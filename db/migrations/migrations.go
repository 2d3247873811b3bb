package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"officecrm/internal/logging"
)

//go:embed postgres/*.sql sqlite3/*.sql
var migrationsFS embed.FS

// dialectFor сопоставляет имя драйвера с диалектом goose и каталогом миграций.
func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case "postgres", "pgx":
		return "postgres", "postgres", nil
	case "sqlite3":
		return "sqlite3", "sqlite3", nil
	}
	return "", "", fmt.Errorf("no migrations for driver %q", driver)
}

// Run применяет все миграции для указанного драйвера.
func Run(db *sql.DB, driver string) error {
	dialect, dir, err := dialectFor(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	logging.Op().Info("running migrations", "dialect", dialect)
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logging.Op().Info("migrations applied", "version", version)
	return nil
}
