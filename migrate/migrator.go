package migrate

import (
	"context"
	"fmt"

	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

// ChunkObserver is told about copy progress. Calls come from the copying
// goroutine, in chunk order.
type ChunkObserver interface {
	TableStarted(table string, total int64)
	ChunkCopied(chunk model.ChunkSpec, rows int64)
	TableFinished(res model.CopyResult)
}

// Migrator copies schema and data of one database at a time from a source
// to a target store. Tables are processed one after another.
type Migrator struct {
	Opener   db.Opener
	PageSize int
	// Tables fixes the tables and their order. Empty means every base table
	// in the source's enumeration order; foreign keys are not resolved.
	Tables       []string
	SkipTables   []string
	SkipExisting bool
	Observer     ChunkObserver
}

func NewMigrator(opener db.Opener, opt *model.Options) *Migrator {
	return &Migrator{
		Opener:       opener,
		PageSize:     opt.PageSize,
		Tables:       opt.TableList,
		SkipTables:   opt.SkipTableList,
		SkipExisting: opt.SkipExisting,
	}
}

func (self *Migrator) tables(ctx context.Context, src *db.Conn) ([]string, error) {
	tables := self.Tables
	if len(tables) == 0 {
		var err error
		tables, err = src.Dialect.ListTables(ctx, src)
		if err != nil {
			return nil, err
		}
	}
	return util.Filter(tables, self.SkipTables), nil
}

// CopyData copies every table of sourceDb into targetDb and returns one
// result per table. A failing table does not stop the others; the returned
// error is set only when the databases could not be opened or listed.
func (self *Migrator) CopyData(ctx context.Context, source, target model.StoreEndpoint, sourceDb, targetDb string) ([]model.CopyResult, error) {
	defer util.TimeCost()(fmt.Sprintf("[%s:%s] data copy finished", sourceDb, targetDb))

	src, err := self.Opener.Open(ctx, source.WithDatabase(sourceDb))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := self.Opener.Open(ctx, target.WithDatabase(targetDb))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	tables, err := self.tables(ctx, src)
	if err != nil {
		return nil, &model.SchemaFetchError{Table: sourceDb, Err: err}
	}
	slog.Infof("[%s:%s] start data copy, tables=%d page_size=%d", sourceDb, targetDb, len(tables), self.PageSize)

	tc := &TableCopier{Source: src, Target: dst, PageSize: self.PageSize, Observer: self.Observer}
	results := make([]model.CopyResult, 0, len(tables))
	for _, table := range tables {
		res := tc.CopyTable(ctx, table)
		res.SourceDb = sourceDb
		res.TargetDb = targetDb
		if res.Err != nil {
			slog.Errorf("%s %s", res.GetLog(), res.Reason)
		} else {
			slog.Info(res.GetLog())
		}
		results = append(results, res)
	}
	return results, nil
}
