package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"

	DefaultLockTimeout = 5 * time.Second
)

// Storage обслуживает все таблицы CRM поверх одного пула соединений.
type Storage struct {
	db          *sqlx.DB
	driver      string
	lockTimeout time.Duration
	tracer      trace.Tracer
}

type Option func(*Storage)

// WithLockTimeout bounds how long a write waits for the office row lock.
// Only Postgres honours it; SQLite relies on the busy timeout in its DSN.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Storage) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Storage) {
		s.tracer = tp.Tracer("officecrm/db")
	}
}

func NewStorage(db *sqlx.DB, opts ...Option) *Storage {
	s := &Storage{
		db:          db,
		driver:      db.DriverName(),
		lockTimeout: DefaultLockTimeout,
		tracer:      otel.Tracer("officecrm/db"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects with one of the supported drivers and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return conn, nil
}

// SQLiteDSN builds a DSN for a database file with foreign keys enforced and
// write transactions begun IMMEDIATE, so concurrent writers queue on the
// database lock instead of failing at commit.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "10000")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func (s *Storage) DB() *sqlx.DB { return s.db }

func (s *Storage) Driver() string { return s.driver }

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) isPostgres() bool {
	return s.driver == DriverPostgres || s.driver == DriverPgx
}

// withTx runs fn in a transaction and translates driver errors. Postgres
// transactions run at READ COMMITTED with a bounded lock wait.
func (s *Storage) withTx(ctx context.Context, name string, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "db."+name, trace.WithAttributes(
		attribute.String("db.system", s.driver),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var opts *sql.TxOptions
	if s.isPostgres() {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return mapErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.isPostgres() {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return mapErr(err)
		}
	}

	if err = fn(tx); err != nil {
		return mapErr(err)
	}
	if err = tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

// page renders LIMIT/OFFSET the same way for every list query.
func page(limit, offset int) string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// conds collects WHERE clauses numbering placeholders in order.
type conds struct {
	parts []string
	args  []any
}

// add appends a clause; every "?" in it refers to arg.
func (c *conds) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conds) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}
