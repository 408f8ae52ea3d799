package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"migrateData/model"
)

var ErrUnsupported = errors.New("not supported by this dialect")

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect hides the SQL differences between the supported engines.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(ep model.StoreEndpoint) string
	Quote(ident string) string
	// Placeholder returns the bind marker of the n-th argument, starting at 1.
	Placeholder(n int) string
	MaxParams() int
	// TransactionalDDL reports whether CREATE TABLE can be rolled back.
	TransactionalDDL() bool
	Paginate(query string, offset, limit int64) string
	RandomSample(table string) string
	ListTables(ctx context.Context, q Querier) ([]string, error)
	CreateTableSQL(ctx context.Context, q Querier, table string) (string, error)
	CreateDatabase(ctx context.Context, q Querier, name string) error
	CreateProbeTable(ctx context.Context, q Querier, table string) error
	InsertProbeRecord(ctx context.Context, q Querier, table, data string) (int64, error)
}

// CoordinateReporter is implemented by dialects that can report the
// replication coordinates of a primary.
type CoordinateReporter interface {
	Coordinates(ctx context.Context, q Querier) (model.Coordinates, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

// Register makes a dialect available under its name and any aliases.
func Register(d Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	for _, name := range append([]string{d.Name()}, aliases...) {
		if _, dup := dialects[name]; dup {
			panic("db: Register called twice for dialect " + name)
		}
		dialects[name] = d
	}
}

func Lookup(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (registered: %s)", name, strings.Join(registered(), ", "))
	}
	return d, nil
}

func registered() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LimitOffset is the LIMIT/OFFSET pagination shared by MySQL and PostgreSQL.
func LimitOffset(query string, offset, limit int64) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}
