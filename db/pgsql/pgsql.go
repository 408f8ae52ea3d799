package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/lib/pq"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

func init() {
	db.Register(Dialect{}, "pgsql", "postgresql")
}

type Dialect struct{}

func (Dialect) Name() string       { return "postgres" }
func (Dialect) DriverName() string { return "postgres" }

func (Dialect) DSN(ep model.StoreEndpoint) string {
	database := ep.Database
	if database == "" {
		database = "postgres"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(ep.Credentials.User, ep.Credentials.Password),
		Host:     ep.Addr(),
		Path:     "/" + database,
		RawQuery: "sslmode=disable&connect_timeout=5",
	}
	return u.String()
}

func (Dialect) Quote(ident string) string { return pq.QuoteIdentifier(ident) }
func (Dialect) Placeholder(n int) string  { return fmt.Sprintf("$%d", n) }
func (Dialect) MaxParams() int            { return 65535 }
func (Dialect) TransactionalDDL() bool    { return true }

func (Dialect) Paginate(query string, offset, limit int64) string {
	return db.LimitOffset(query, offset, limit)
}

func (d Dialect) RandomSample(table string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY RANDOM() LIMIT 1", d.Quote(table))
}

func (Dialect) ListTables(ctx context.Context, q db.Querier) ([]string, error) {
	tables, err := util.QueryColumn(ctx, q, `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("ListTables -> %w", err)
	}
	return tables, nil
}

// CreateTableSQL is not available: PostgreSQL has no server-side equivalent of
// SHOW CREATE TABLE.
func (Dialect) CreateTableSQL(context.Context, db.Querier, string) (string, error) {
	return "", fmt.Errorf("CreateTableSQL -> %w", db.ErrUnsupported)
}

func (d Dialect) CreateDatabase(ctx context.Context, q db.Querier, name string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = q.ExecContext(ctx, "CREATE DATABASE "+d.Quote(name))
	return err
}

func (d Dialect) CreateProbeTable(ctx context.Context, q db.Querier, table string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  data VARCHAR(255),
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, d.Quote(table)))
	return err
}

func (d Dialect) InsertProbeRecord(ctx context.Context, q db.Querier, table, data string) (id int64, err error) {
	err = q.QueryRowContext(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES ($1) RETURNING id", d.Quote(table)), data).Scan(&id)
	return
}
