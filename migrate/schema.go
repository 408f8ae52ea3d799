package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

// CopySchema creates targetDb if absent and replays the creation statement of
// every source table on it, in one transaction. On the first failure the
// transaction is rolled back; on engines whose DDL commits implicitly the
// tables created by this call are dropped again. The created database is
// kept either way.
//
// An already existing target table makes the call fail with a
// SchemaApplyError unless SkipExisting is set, in which case it is listed in
// SchemaResult.Existing and left untouched.
func (self *Migrator) CopySchema(ctx context.Context, source, target model.StoreEndpoint, sourceDb, targetDb string) (res model.SchemaResult) {
	defer util.TimeCost()(fmt.Sprintf("[%s:%s] schema copy finished", sourceDb, targetDb))
	start := time.Now()
	res = model.SchemaResult{SourceDb: sourceDb, TargetDb: targetDb, Status: model.StatusSuccess}
	defer func() { res.Elapsed = time.Since(start) }()

	if err := self.ensureDatabase(ctx, target, targetDb); err != nil {
		res.Fail(err)
		return
	}

	src, err := self.Opener.Open(ctx, source.WithDatabase(sourceDb))
	if err != nil {
		res.Fail(err)
		return
	}
	defer src.Close()

	tables, err := self.tables(ctx, src)
	if err != nil {
		res.Fail(&model.SchemaFetchError{Table: sourceDb, Err: err})
		return
	}
	res.Tables = tables

	dst, err := self.Opener.Open(ctx, target.WithDatabase(targetDb))
	if err != nil {
		res.Fail(err)
		return
	}
	defer dst.Close()

	if self.SkipExisting {
		existing, err := dst.Dialect.ListTables(ctx, dst)
		if err != nil {
			res.Fail(&model.SchemaFetchError{Table: targetDb, Err: err})
			return
		}
		for _, t := range tables {
			if util.InSlice(t, existing) {
				res.Existing = append(res.Existing, t)
			}
		}
		tables = util.Filter(tables, existing)
		if len(res.Existing) > 0 {
			slog.Infof("[%s:%s] skip existing tables: %v", sourceDb, targetDb, res.Existing)
		}
	}

	created, err := applySchema(ctx, src, dst, tables)
	if err != nil {
		res.Fail(err)
		return
	}
	res.Created = created
	slog.Infof("[%s:%s] schema copied, created=%d existing=%d", sourceDb, targetDb, len(created), len(res.Existing))
	return
}

func (self *Migrator) ensureDatabase(ctx context.Context, target model.StoreEndpoint, name string) error {
	admin, err := self.Opener.Open(ctx, target.WithDatabase(""))
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.Dialect.CreateDatabase(ctx, admin, name); err != nil {
		return fmt.Errorf("ensureDatabase(%s) -> %w", name, err)
	}
	return nil
}

func applySchema(ctx context.Context, src, dst *db.Conn, tables []string) (created []string, err error) {
	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return nil, &model.SchemaApplyError{Table: dst.Endpoint.Database, Err: err}
	}
	defer func() {
		if err != nil {
			rollbackSchema(ctx, tx, dst, created)
			created = nil
		}
	}()

	for _, table := range tables {
		stmt, ferr := src.Dialect.CreateTableSQL(ctx, src, table)
		if ferr != nil {
			return created, &model.SchemaFetchError{Table: table, Err: ferr}
		}
		if _, aerr := tx.ExecContext(ctx, stmt); aerr != nil {
			return created, &model.SchemaApplyError{Table: table, Err: aerr}
		}
		created = append(created, table)
		slog.Infof("[%s.%s] schema copied", dst.Endpoint.Database, table)
	}

	if cerr := tx.Commit(); cerr != nil {
		return created, &model.SchemaApplyError{Table: dst.Endpoint.Database, Err: cerr}
	}
	return created, nil
}

func rollbackSchema(ctx context.Context, tx *sql.Tx, dst *db.Conn, created []string) {
	if err := tx.Rollback(); err != nil {
		slog.Warnf("[%s] rollback: %s", dst.Endpoint.Database, err)
	}
	if dst.Dialect.TransactionalDDL() {
		return
	}
	//DDL committed implicitly, drop what this run created
	ctx = context.WithoutCancel(ctx)
	for i := len(created) - 1; i >= 0; i-- {
		if _, err := dst.ExecContext(ctx, "DROP TABLE IF EXISTS "+dst.Quote(created[i])); err != nil {
			slog.Errorf("[%s.%s] drop after failed schema copy: %s", dst.Endpoint.Database, created[i], err)
			continue
		}
		slog.Infof("[%s.%s] dropped after failed schema copy", dst.Endpoint.Database, created[i])
	}
}
