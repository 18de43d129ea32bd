package repos

import (
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	applog "blossoms/internal/log"
)

//go:embed migrations
var migrations embed.FS

// Driver names accepted by OpenDB.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// OpenDB connects to the products/orders database and brings its schema up
// to date. driver is SQLite or Postgres.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	const op = "repos.OpenDB"

	sqlDriver := driver
	switch driver {
	case Postgres:
		sqlDriver = "pgx"
	case SQLite:
		if err := registerSQLiteFuncs(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == SQLite {
		// One connection keeps ":memory:" databases coherent and serialises
		// writers the way sqlite wants anyway.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	if err := migrateUp(db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

func migrateUp(db *sqlx.DB, driver string) error {
	var (
		target database.Driver
		err    error
	)
	switch driver {
	case SQLite:
		target, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	case Postgres:
		target, err = migratepgx.WithInstance(db.DB, &migratepgx.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	// m is not closed: closing it would close db as well.
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, _ := m.Version()
	applog.Info(nil, "db.migrate", map[string]any{"driver": driver, "version": v})
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, case folded,
// with s's own wildcard characters taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// unicodeLower is registered on sqlite, whose built-in LOWER folds ASCII only.
const unicodeLower = "unicode_lower"

var (
	sqliteFuncsOnce sync.Once
	sqliteFuncsErr  error
)

func registerSQLiteFuncs() error {
	sqliteFuncsOnce.Do(func() {
		sqliteFuncsErr = sqlite.RegisterDeterministicScalarFunction(unicodeLower, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return sqliteFuncsErr
}

// lowerFunc names the SQL function that case folds text the way
// containsPattern does.
func lowerFunc(db *sqlx.DB) string {
	if db.DriverName() == SQLite {
		return unicodeLower
	}
	return "LOWER"
}
