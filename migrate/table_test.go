package migrate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrateData/db/dbtest"
	"migrateData/db/mysql"
	"migrateData/migrate"
	"migrateData/model"
)

var (
	source = model.NewEndpoint("mysql", "localhost", 3306, "root", "123456", "")
	target = model.NewEndpoint("mysql", "localhost", 3307, "root", "123456", "")
)

func employeeRows(from, to int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name"})
	for i := from; i < to; i++ {
		rows.AddRow(int64(i+1), fmt.Sprintf("employee-%d", i+1))
	}
	return rows
}

func insertSQL(table string, n int) string {
	values := make([]string, n)
	for i := range values {
		values[i] = "(?, ?)"
	}
	return fmt.Sprintf("INSERT INTO `%s` (`id`, `name`) VALUES %s", table, strings.Join(values, ", "))
}

type recorder struct {
	started  map[string]int64
	chunks   []model.ChunkSpec
	finished []model.CopyResult
}

func (self *recorder) TableStarted(table string, total int64) {
	if self.started == nil {
		self.started = make(map[string]int64)
	}
	self.started[table] = total
}
func (self *recorder) ChunkCopied(chunk model.ChunkSpec, rows int64) {
	self.chunks = append(self.chunks, chunk)
}
func (self *recorder) TableFinished(res model.CopyResult) { self.finished = append(self.finished, res) }

func TestPlanChunks(t *testing.T) {
	chunks := migrate.PlanChunks("employees", 2500, 1000)
	assert.Equal(t, []model.ChunkSpec{
		{Table: "employees", Offset: 0, Limit: 1000},
		{Table: "employees", Offset: 1000, Limit: 1000},
		{Table: "employees", Offset: 2000, Limit: 500},
	}, chunks)

	assert.Len(t, migrate.PlanChunks("employees", 3000, 1000), 3)
	assert.Len(t, migrate.PlanChunks("employees", 1, 1000), 1)
	assert.Empty(t, migrate.PlanChunks("employees", 0, 1000))
	assert.Empty(t, migrate.PlanChunks("employees", 10, 0))
}

func TestMigrator_CopyData(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("sample_migration_db"))
	dst := opener.Expect(target.WithDatabase("sample_migration_db"))

	src.ExpectQuery("SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_sample_migration_db", "Table_type"}).
			AddRow("employees", "BASE TABLE"))
	src.ExpectQuery("SELECT COUNT(*) FROM `employees`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2500)))
	for _, page := range [][2]int{{0, 1000}, {1000, 2000}, {2000, 2500}} {
		src.ExpectQuery(fmt.Sprintf("SELECT * FROM `employees` LIMIT %d OFFSET %d", page[1]-page[0], page[0])).
			WillReturnRows(employeeRows(page[0], page[1]))
		dst.ExpectBegin()
		dst.ExpectExec(insertSQL("employees", page[1]-page[0])).
			WillReturnResult(sqlmock.NewResult(0, int64(page[1]-page[0])))
		dst.ExpectCommit()
	}

	rec := &recorder{}
	m := &migrate.Migrator{Opener: opener, PageSize: 1000, Observer: rec}
	results, err := m.CopyData(context.Background(), source, target, "sample_migration_db", "sample_migration_db")
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.Equal(t, "employees", res.Table)
	assert.Equal(t, "sample_migration_db", res.TargetDb)
	assert.Equal(t, int64(2500), res.SourceRows)
	assert.Equal(t, int64(2500), res.Rows)
	assert.Equal(t, 3, res.Chunks)
	assert.NoError(t, res.Err)

	assert.Equal(t, int64(2500), rec.started["employees"])
	assert.Equal(t, migrate.PlanChunks("employees", 2500, 1000), rec.chunks)
	require.Len(t, rec.finished, 1)
	opener.Verify()
}

func TestMigrator_CopyDataSkipTables(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("db1"))
	opener.Expect(target.WithDatabase("db01"))

	src.ExpectQuery("SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_db1", "Table_type"}).
			AddRow("audit_log", "BASE TABLE").
			AddRow("empty_table", "BASE TABLE"))
	src.ExpectQuery("SELECT COUNT(*) FROM `empty_table`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))

	m := &migrate.Migrator{Opener: opener, PageSize: 1000, SkipTables: []string{"audit_log"}}
	results, err := m.CopyData(context.Background(), source, target, "db1", "db01")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "empty_table", results[0].Table)
	assert.Equal(t, model.StatusSuccess, results[0].Status)
	assert.Zero(t, results[0].Chunks)
	opener.Verify()
}

func TestMigrator_CopyDataOpenFailure(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	opener.Fail(source.WithDatabase("db1"), errors.New("connection refused"))

	m := &migrate.Migrator{Opener: opener, PageSize: 1000}
	results, err := m.CopyData(context.Background(), source, target, "db1", "db1")
	assert.Nil(t, results)

	var connErr *model.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "localhost:3306/db1", connErr.Endpoint)
}

func TestTableCopier_PartialWrite(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("sample_migration_db"))
	dst := opener.Expect(target.WithDatabase("sample_migration_db"))

	src.ExpectQuery("SELECT COUNT(*) FROM `employees`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2500)))
	src.ExpectQuery("SELECT * FROM `employees` LIMIT 1000 OFFSET 0").
		WillReturnRows(employeeRows(0, 1000))
	dst.ExpectBegin()
	dst.ExpectExec(insertSQL("employees", 1000)).WillReturnResult(sqlmock.NewResult(0, 1000))
	dst.ExpectCommit()
	src.ExpectQuery("SELECT * FROM `employees` LIMIT 1000 OFFSET 1000").
		WillReturnRows(employeeRows(1000, 2000))
	dst.ExpectBegin()
	dst.ExpectExec(insertSQL("employees", 1000)).WillReturnError(errors.New("Duplicate entry '1001' for key 'PRIMARY'"))
	dst.ExpectRollback()

	ctx := context.Background()
	srcConn, err := opener.Open(ctx, source.WithDatabase("sample_migration_db"))
	require.NoError(t, err)
	dstConn, err := opener.Open(ctx, target.WithDatabase("sample_migration_db"))
	require.NoError(t, err)

	tc := &migrate.TableCopier{Source: srcConn, Target: dstConn, PageSize: 1000}
	res := tc.CopyTable(ctx, "employees")

	assert.Equal(t, model.StatusPartial, res.Status)
	assert.Equal(t, int64(1000), res.Rows)
	assert.Equal(t, 1, res.Chunks)

	var writeErr *model.ChunkWriteError
	require.ErrorAs(t, res.Err, &writeErr)
	assert.Equal(t, int64(1000), writeErr.Offset)
	assert.Equal(t, int64(1000), writeErr.Limit)
	assert.Contains(t, res.Reason, "Duplicate entry")
	opener.Verify()
}

func TestTableCopier_ReadFailure(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("db1"))
	opener.Expect(target.WithDatabase("db1"))

	src.ExpectQuery("SELECT COUNT(*) FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(10)))
	src.ExpectQuery("SELECT * FROM `orders` LIMIT 10 OFFSET 0").
		WillReturnError(errors.New("Lost connection to MySQL server during query"))

	ctx := context.Background()
	srcConn, _ := opener.Open(ctx, source.WithDatabase("db1"))
	dstConn, _ := opener.Open(ctx, target.WithDatabase("db1"))
	res := (&migrate.TableCopier{Source: srcConn, Target: dstConn, PageSize: 1000}).CopyTable(ctx, "orders")

	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Zero(t, res.Rows)
	var readErr *model.ChunkReadError
	require.ErrorAs(t, res.Err, &readErr)
	assert.Equal(t, "orders", readErr.Table)
	opener.Verify()
}

func TestTableCopier_InvalidPageSize(t *testing.T) {
	res := (&migrate.TableCopier{PageSize: 0}).CopyTable(context.Background(), "employees")
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.ErrorContains(t, res.Err, "page size")
}

func TestMigrator_CopyDataFailedTableDoesNotStopOthers(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("db1"))
	dst := opener.Expect(target.WithDatabase("db1"))

	src.ExpectQuery("SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_db1", "Table_type"}).
			AddRow("orders", "BASE TABLE").
			AddRow("employees", "BASE TABLE"))
	src.ExpectQuery("SELECT COUNT(*) FROM `orders`").
		WillReturnError(errors.New("Table 'db1.orders' doesn't exist"))
	src.ExpectQuery("SELECT COUNT(*) FROM `employees`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(3)))
	src.ExpectQuery("SELECT * FROM `employees` LIMIT 3 OFFSET 0").
		WillReturnRows(employeeRows(0, 3))
	dst.ExpectBegin()
	dst.ExpectExec(insertSQL("employees", 3)).WillReturnResult(sqlmock.NewResult(0, 3))
	dst.ExpectCommit()

	m := &migrate.Migrator{Opener: opener, PageSize: 1000}
	results, err := m.CopyData(context.Background(), source, target, "db1", "db1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "orders", results[0].Table)
	assert.Equal(t, model.StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "doesn't exist")

	assert.Equal(t, "employees", results[1].Table)
	assert.Equal(t, model.StatusSuccess, results[1].Status)
	assert.Equal(t, int64(3), results[1].Rows)
	opener.Verify()
}

func TestTableCopier_NoColumns(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	src := opener.Expect(source.WithDatabase("db1"))
	opener.Expect(target.WithDatabase("db1"))

	src.ExpectQuery("SELECT COUNT(*) FROM `placeholders`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2)))
	src.ExpectQuery("SELECT * FROM `placeholders` LIMIT 2 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{}).AddRow().AddRow())

	ctx := context.Background()
	srcConn, _ := opener.Open(ctx, source.WithDatabase("db1"))
	dstConn, _ := opener.Open(ctx, target.WithDatabase("db1"))
	res := (&migrate.TableCopier{Source: srcConn, Target: dstConn, PageSize: 1000}).CopyTable(ctx, "placeholders")

	assert.Equal(t, model.StatusFailed, res.Status)
	var writeErr *model.ChunkWriteError
	require.ErrorAs(t, res.Err, &writeErr)
	assert.Contains(t, res.Reason, "no columns")
	opener.Verify()
}
