package mssql

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

func init() {
	db.Register(Dialect{}, "mssql")
}

type Dialect struct{}

func (Dialect) Name() string       { return "sqlserver" }
func (Dialect) DriverName() string { return "sqlserver" }

func (Dialect) DSN(ep model.StoreEndpoint) string {
	query := url.Values{}
	query.Set("encrypt", "disable")
	query.Set("dial timeout", "5")
	if ep.Database != "" {
		query.Set("database", ep.Database)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(ep.Credentials.User, ep.Credentials.Password),
		Host:     ep.Addr(),
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (Dialect) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

// MaxParams stays below the 2100 parameter limit of a SQL Server request.
func (Dialect) MaxParams() int         { return 2000 }
func (Dialect) TransactionalDDL() bool { return true }

// Paginate needs an ORDER BY for OFFSET/FETCH; (SELECT NULL) keeps the
// store's default order.
func (Dialect) Paginate(query string, offset, limit int64) string {
	return fmt.Sprintf("%s ORDER BY (SELECT NULL) OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}

func (d Dialect) RandomSample(table string) string {
	return fmt.Sprintf("SELECT TOP 1 * FROM %s ORDER BY NEWID()", d.Quote(table))
}

func (Dialect) ListTables(ctx context.Context, q db.Querier) ([]string, error) {
	tables, err := util.QueryColumn(ctx, q, `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME() ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, fmt.Errorf("ListTables -> %w", err)
	}
	return tables, nil
}

func (Dialect) CreateTableSQL(context.Context, db.Querier, string) (string, error) {
	return "", fmt.Errorf("CreateTableSQL -> %w", db.ErrUnsupported)
}

func (d Dialect) CreateDatabase(ctx context.Context, q db.Querier, name string) error {
	_, err := q.ExecContext(ctx, "IF DB_ID(@p1) IS NULL CREATE DATABASE "+d.Quote(name), name)
	return err
}

func (d Dialect) CreateProbeTable(ctx context.Context, q db.Querier, table string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`IF OBJECT_ID(@p1, N'U') IS NULL CREATE TABLE %s (
  [id] BIGINT IDENTITY(1,1) PRIMARY KEY,
  [data] NVARCHAR(255),
  [created_at] DATETIME2 DEFAULT SYSDATETIME()
)`, d.Quote(table)), table)
	return err
}

func (d Dialect) InsertProbeRecord(ctx context.Context, q db.Querier, table, data string) (id int64, err error) {
	err = q.QueryRowContext(ctx, fmt.Sprintf("INSERT INTO %s ([data]) OUTPUT INSERTED.[id] VALUES (@p1)", d.Quote(table)), data).Scan(&id)
	return
}
