// Package store persists hit lists and saved searches across sessions;
// the undo/redo history lives only in memory (internal/session) and is
// not stored here. It registers four database/sql drivers by blank
// import (sqlite, mysql, postgres, sqlserver) and opens whichever one
// the config-supplied driver name selects, so a single pool of queries
// serves a local file store or a shared remote one with no branching in
// the calling code.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/pkg/errors"
)

// Store wraps a *sql.DB bound to one of the four registered drivers and
// exposes saved-search persistence and the hit-list persistence the
// shell's save/load commands use.
type Store struct {
	db     *sql.DB
	driver string
}

// driverName maps a config-file driver name to the database/sql driver
// name registered by its blank import above.
var driverName = map[string]string{
	"sqlite":    "sqlite",
	"mysql":     "mysql",
	"postgres":  "postgres",
	"sqlserver": "sqlserver",
}

// Open connects to dsn using driver (one of "sqlite", "mysql",
// "postgres", "sqlserver") and ensures the schema exists.
func Open(driver, dsn string) (*Store, error) {
	name, ok := driverName[driver]
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", driver)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrapf(err, "store: ping %s", driver)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// rebind translates the "?"-style placeholders every query below is
// written with into the driver's native placeholder syntax: postgres and
// sqlserver don't accept "?" at all (lib/pq and go-mssqldb require
// "$1"/"@p1"), while sqlite and mysql accept "?" natively.
func (s *Store) rebind(query string) string {
	switch s.driver {
	case "postgres":
		return rebindNumbered(query, func(n int) string { return "$" + strconv.Itoa(n) })
	case "sqlserver":
		return rebindNumbered(query, func(n int) string { return "@p" + strconv.Itoa(n) })
	default:
		return query
	}
}

func rebindNumbered(query string, placeholder func(n int) string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// migrate creates the three tables a session needs. CREATE TABLE IF NOT
// EXISTS is supported identically by sqlite/mysql/postgres/sqlserver, so
// no driver-specific DDL branch is needed here.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_searches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			expression TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hit_lists (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			search_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hits (
			hit_list_id TEXT NOT NULL,
			address TEXT NOT NULL,
			value_type TEXT NOT NULL,
			raw_value TEXT NOT NULL,
			seq INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "store: migrate")
		}
	}
	return nil
}

// SavedSearch is one persisted search expression.
type SavedSearch struct {
	ID         string
	Name       string
	Expression string
	CreatedAt  time.Time
}

func (s *Store) SaveSearch(ctx context.Context, search SavedSearch) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO saved_searches (id, name, expression, created_at) VALUES (?, ?, ?, ?)`),
		search.ID, search.Name, search.Expression, search.CreatedAt.Format(time.RFC3339))
	return errors.Wrap(err, "store: save search")
}

func (s *Store) ListSearches(ctx context.Context) ([]SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, name, expression, created_at FROM saved_searches ORDER BY created_at`))
	if err != nil {
		return nil, errors.Wrap(err, "store: list searches")
	}
	defer rows.Close()

	var out []SavedSearch
	for rows.Next() {
		var sr SavedSearch
		var createdAt string
		if err := rows.Scan(&sr.ID, &sr.Name, &sr.Expression, &createdAt); err != nil {
			return nil, errors.Wrap(err, "store: scan search")
		}
		sr.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, sr)
	}
	return out, rows.Err()
}

// HitRecord is one typed value found at an address during a scan.
type HitRecord struct {
	Address   uint64
	ValueType string
	RawValue  string
}

// SaveHitList persists a snapshot of a hit list under hitListID, owned by
// sessionID and optionally tied to a saved search.
func (s *Store) SaveHitList(ctx context.Context, hitListID, sessionID, searchID string, hits []HitRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback()

	var searchIDArg interface{}
	if searchID != "" {
		searchIDArg = searchID
	}
	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO hit_lists (id, session_id, search_id, created_at) VALUES (?, ?, ?, ?)`),
		hitListID, sessionID, searchIDArg, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return errors.Wrap(err, "store: insert hit list")
	}
	for i, h := range hits {
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO hits (hit_list_id, address, value_type, raw_value, seq) VALUES (?, ?, ?, ?, ?)`),
			hitListID, fmt.Sprintf("0x%x", h.Address), h.ValueType, h.RawValue, i); err != nil {
			return errors.Wrap(err, "store: insert hit")
		}
	}
	return errors.Wrap(tx.Commit(), "store: commit hit list")
}

func (s *Store) LoadHitList(ctx context.Context, hitListID string) ([]HitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT address, value_type, raw_value FROM hits WHERE hit_list_id = ? ORDER BY seq`), hitListID)
	if err != nil {
		return nil, errors.Wrap(err, "store: load hit list")
	}
	defer rows.Close()

	var out []HitRecord
	for rows.Next() {
		var h HitRecord
		var addrHex string
		if err := rows.Scan(&addrHex, &h.ValueType, &h.RawValue); err != nil {
			return nil, errors.Wrap(err, "store: scan hit")
		}
		fmt.Sscanf(addrHex, "0x%x", &h.Address)
		out = append(out, h)
	}
	return out, rows.Err()
}
