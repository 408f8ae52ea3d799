package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

// PlanChunks splits total rows into pages of pageSize. Offsets grow strictly
// and only the last page may be shorter.
func PlanChunks(table string, total int64, pageSize int) []model.ChunkSpec {
	if pageSize < 1 || total <= 0 {
		return nil
	}
	size := int64(pageSize)
	chunks := make([]model.ChunkSpec, 0, (total+size-1)/size)
	for offset := int64(0); offset < total; offset += size {
		limit := size
		if total-offset < size {
			limit = total - offset
		}
		chunks = append(chunks, model.ChunkSpec{Table: table, Offset: offset, Limit: limit})
	}
	return chunks
}

// TableCopier appends the rows of one table from Source to Target, one page
// at a time. Pages are read without ORDER BY, so the source must not be
// written to while it is copied.
type TableCopier struct {
	Source   *db.Conn
	Target   *db.Conn
	PageSize int
	Observer ChunkObserver
}

// CopyTable never returns early on a chunk error without recording it: the
// result carries the rows committed so far and the first error.
func (self *TableCopier) CopyTable(ctx context.Context, table string) (res model.CopyResult) {
	start := time.Now()
	res = model.CopyResult{Table: table, Status: model.StatusSuccess}
	defer func() {
		res.Elapsed = time.Since(start)
		if self.Observer != nil {
			self.Observer.TableFinished(res)
		}
	}()

	if self.PageSize < 1 {
		res.Fail(fmt.Errorf("CopyTable(%s) -> page size must be >= 1, got %d", table, self.PageSize))
		return
	}

	desc, err := self.describe(ctx, table)
	if err != nil {
		res.Fail(err)
		return
	}
	total := desc.RowCount
	res.SourceRows = total
	if self.Observer != nil {
		self.Observer.TableStarted(table, total)
	}
	slog.Infof("[%s.%s] start copy, rows=%d", self.Target.Endpoint.Database, table, total)

	for _, chunk := range PlanChunks(table, total, self.PageSize) {
		cols, rows, err := self.readChunk(ctx, chunk)
		if err != nil {
			res.Fail(&model.ChunkReadError{Table: table, Offset: chunk.Offset, Limit: chunk.Limit, Err: err})
			return
		}
		desc.Columns = cols
		if int64(len(rows)) != chunk.Limit {
			slog.Warnf("[%s] expected %d rows, read %d, source changed during copy?", chunk, chunk.Limit, len(rows))
		}
		if err := self.writeChunk(ctx, desc, rows); err != nil {
			res.Fail(&model.ChunkWriteError{Table: table, Offset: chunk.Offset, Limit: chunk.Limit, Err: err})
			return
		}
		res.Rows += int64(len(rows))
		res.Chunks++
		if self.Observer != nil {
			self.Observer.ChunkCopied(chunk, int64(len(rows)))
		}
	}
	return
}

// describe counts the source rows. Columns are filled in from the pages read.
func (self *TableCopier) describe(ctx context.Context, table string) (desc model.TableDescriptor, err error) {
	desc.Name = table
	err = self.Source.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+self.Source.Quote(table)).Scan(&desc.RowCount)
	if err != nil {
		return desc, fmt.Errorf("describe(%s) -> %w", table, err)
	}
	return desc, nil
}

func (self *TableCopier) readChunk(ctx context.Context, chunk model.ChunkSpec) (cols []string, rows [][]any, err error) {
	query := self.Source.Dialect.Paginate("SELECT * FROM "+self.Source.Quote(chunk.Table), chunk.Offset, chunk.Limit)
	cur, err := self.Source.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close()

	cols, err = cur.Columns()
	if err != nil {
		return nil, nil, err
	}

	rows = make([][]any, 0, chunk.Limit)
	for cur.Next() {
		row := make([]any, len(cols))
		rowP := make([]any, len(cols))
		for i := range row {
			rowP[i] = &row[i]
		}
		if err := cur.Scan(rowP...); err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return cols, rows, cur.Err()
}

// writeChunk appends rows in one transaction, using multi-row INSERTs that
// stay under the target's bind parameter limit. Columns are matched by name.
func (self *TableCopier) writeChunk(ctx context.Context, desc model.TableDescriptor, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	table, cols := desc.Name, desc.Columns
	if len(cols) == 0 {
		return fmt.Errorf("writeChunk(%s) -> source rows have no columns", table)
	}
	d := self.Target.Dialect
	perStmt := d.MaxParams() / len(cols)
	if perStmt < 1 {
		return fmt.Errorf("writeChunk(%s) -> %d columns exceed the parameter limit %d", table, len(cols), d.MaxParams())
	}

	tx, err := self.Target.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", d.Quote(table), util.QuoteAndJoin(cols, d.Quote))
	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsert(prefix, d, len(cols), rows[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func buildInsert(prefix string, d db.Dialect, width int, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString(prefix)
	args := make([]any, 0, width*len(rows))
	n := 0
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(d.Placeholder(n))
		}
		b.WriteString(")")
		args = append(args, row...)
	}
	return b.String(), args
}
