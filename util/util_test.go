package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryReturnList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select id, status from employees").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(1, "ok").AddRow(2, nil))

	res, err := QueryReturnList(context.Background(), db, "select id, status from employees limit 5")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "ok"}, {"2", "NULL"}}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryReturnDict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SHOW MASTER STATUS").
		WillReturnRows(sqlmock.NewRows([]string{"File", "Position"}).AddRow("binlog.000003", 157))

	res, err := QueryReturnDict(context.Background(), db, "SHOW MASTER STATUS")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "binlog.000003", res[0]["File"])
	assert.Equal(t, "157", res[0]["Position"])
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []string{"employees", "orders"}, Filter([]string{"employees", "products", "orders"}, []string{"products"}))
	assert.Equal(t, []int{}, Filter([]int{1}, []int{1}))
}

func TestEncloseStr(t *testing.T) {
	assert.Equal(t, "`a``b`", EncloseStr("a`b", "`"))
	assert.Equal(t, `"users"`, EncloseStr("users", `"`))
	assert.Equal(t, "`a`, `b`", QuoteAndJoin([]string{"a", "b"}, func(s string) string { return EncloseStr(s, "`") }))
}

func TestWriteFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "reports", "run.txt")
	require.NoError(t, WriteFile(name, []byte("hello")))
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}
