// Package mysql registers the MySQL dialect. OceanBase and TiDB speak the
// same protocol and are registered as aliases.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

const quote = "`"

func init() {
	db.Register(Dialect{}, "oceanbase", "tidb")
}

type Dialect struct{}

func (Dialect) Name() string       { return "mysql" }
func (Dialect) DriverName() string { return "mysql" }

func (Dialect) DSN(ep model.StoreEndpoint) string {
	cfg := driver.NewConfig()
	cfg.User = ep.Credentials.User
	cfg.Passwd = ep.Credentials.Password
	cfg.Net = "tcp"
	cfg.Addr = ep.Addr()
	cfg.DBName = ep.Database
	cfg.Timeout = 5 * time.Second
	return cfg.FormatDSN()
}

func (Dialect) Quote(ident string) string { return util.EncloseStr(ident, quote) }
func (Dialect) Placeholder(int) string    { return "?" }
func (Dialect) MaxParams() int            { return 65535 }
func (Dialect) TransactionalDDL() bool    { return false }

func (Dialect) Paginate(query string, offset, limit int64) string {
	return db.LimitOffset(query, offset, limit)
}

func (d Dialect) RandomSample(table string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY RAND() LIMIT 1", d.Quote(table))
}

func (Dialect) ListTables(ctx context.Context, q db.Querier) ([]string, error) {
	//views have no Create Table, only base tables are listed
	tables, err := util.QueryColumn(ctx, q, "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
	if err != nil {
		return nil, fmt.Errorf("ListTables -> %w", err)
	}
	return tables, nil
}

func (d Dialect) CreateTableSQL(ctx context.Context, q db.Querier, table string) (string, error) {
	rows, err := util.QueryReturnDict(ctx, q, "SHOW CREATE TABLE "+d.Quote(table))
	if err != nil {
		return "", fmt.Errorf("CreateTableSQL -> %w", err)
	}
	if len(rows) == 0 || rows[0]["Create Table"] == "" {
		return "", fmt.Errorf("CreateTableSQL -> no Create Table returned for %s", table)
	}
	return rows[0]["Create Table"], nil
}

func (d Dialect) CreateDatabase(ctx context.Context, q db.Querier, name string) error {
	_, err := q.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+d.Quote(name))
	return err
}

func (d Dialect) CreateProbeTable(ctx context.Context, q db.Querier, table string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
		"  `id` BIGINT AUTO_INCREMENT PRIMARY KEY,\n"+
		"  `data` VARCHAR(255),\n"+
		"  `created_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP\n"+
		")", d.Quote(table)))
	return err
}

func (d Dialect) InsertProbeRecord(ctx context.Context, q db.Querier, table, data string) (int64, error) {
	res, err := q.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (`data`) VALUES (?)", d.Quote(table)), data)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Coordinates reads SHOW MASTER STATUS, falling back to SHOW BINARY LOG
// STATUS on servers where the former was removed.
func (Dialect) Coordinates(ctx context.Context, q db.Querier) (model.Coordinates, error) {
	rows, err := util.QueryReturnDict(ctx, q, "SHOW MASTER STATUS")
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1064 {
		rows, err = util.QueryReturnDict(ctx, q, "SHOW BINARY LOG STATUS")
	}
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("Coordinates -> %w", err)
	}
	if len(rows) == 0 {
		return model.Coordinates{}, fmt.Errorf("Coordinates -> binary logging is disabled")
	}
	pos, err := strconv.ParseInt(rows[0]["Position"], 10, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("Coordinates -> bad position %q", rows[0]["Position"])
	}
	c := model.Coordinates{File: rows[0]["File"], Position: pos}
	if gtid, ok := rows[0]["Executed_Gtid_Set"]; ok && gtid != "NULL" {
		c.ExecutedGtids = gtid
	}
	return c, nil
}
