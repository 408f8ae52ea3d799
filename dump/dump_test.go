package dump

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrateData/db/dbtest"
	"migrateData/db/mysql"
	"migrateData/model"
)

var (
	source = model.NewEndpoint("mysql", "localhost", 3306, "root", "123456", "source_database")
	target = model.NewEndpoint("mysql", "localhost", 3308, "root", "123456", "replication_database")
)

const sampleDump = "CREATE TABLE `employees` (\n" +
	"  `id` int NOT NULL\n" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci;\n" +
	"INSERT INTO `employees` VALUES (1),(2);"

type fakeDumper struct{ data string }

func (self fakeDumper) Dump(_ context.Context, _ model.StoreEndpoint, w io.Writer) error {
	_, err := io.Copy(w, strings.NewReader(self.data))
	return err
}

type fakeRestorer struct {
	got bytes.Buffer
	err error
}

func (self *fakeRestorer) Restore(_ context.Context, _ model.StoreEndpoint, r io.Reader) error {
	if self.err != nil {
		return self.err
	}
	_, err := io.Copy(&self.got, r)
	return err
}

func TestCollationReader(t *testing.T) {
	r := NewCollationReader(iotest.OneByteReader(strings.NewReader(sampleDump)), DefaultFromCollation, DefaultToCollation)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(sampleDump, "utf8mb4_0900_ai_ci", "utf8mb4_general_ci"), string(out))
	assert.NotContains(t, string(out), "0900")
}

func TestCollationReader_Noop(t *testing.T) {
	src := strings.NewReader(sampleDump)
	assert.Same(t, io.Reader(src), NewCollationReader(src, "", "utf8mb4_general_ci"))
}

func TestCommand(t *testing.T) {
	cmd := NewMysqlDump("--single-transaction").command(context.Background(), source)
	assert.Equal(t, []string{"mysqldump", "--host=localhost", "--port=3306", "--user=root", "--single-transaction", "source_database"}, cmd.Args)
	assert.Contains(t, cmd.Env, "MYSQL_PWD=123456")
	for _, arg := range cmd.Args {
		assert.NotContains(t, arg, "123456")
	}
}

func TestCommand_MissingBinary(t *testing.T) {
	c := &MysqlClient{Command{Path: "/nonexistent/bin/mysql"}}
	err := c.Restore(context.Background(), target, strings.NewReader(""))
	assert.ErrorContains(t, err, "/nonexistent/bin/mysql")
}

func TestTransfer_Run(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	opener.Expect(target.WithDatabase("")).ExpectExec("CREATE DATABASE IF NOT EXISTS `replication_database`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	restorer := &fakeRestorer{}
	tr := NewTransfer(opener)
	tr.Dumper = fakeDumper{data: sampleDump}
	tr.Restorer = restorer

	require.NoError(t, tr.Run(context.Background(), source, target))
	assert.Contains(t, restorer.got.String(), "COLLATE=utf8mb4_general_ci;")
	assert.Contains(t, restorer.got.String(), "INSERT INTO `employees` VALUES (1),(2);")
	opener.Verify()
}

func TestTransfer_RestoreFailure(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	opener.Expect(target.WithDatabase("")).ExpectExec("CREATE DATABASE IF NOT EXISTS `replication_database`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tr := NewTransfer(opener)
	tr.Dumper = fakeDumper{data: strings.Repeat(sampleDump+"\n", 10000)}
	tr.Restorer = &fakeRestorer{err: errors.New("ERROR 1045 (28000): Access denied")}

	err := tr.Run(context.Background(), source, target)
	assert.ErrorContains(t, err, "Access denied")
}

func TestTransfer_TargetUnreachable(t *testing.T) {
	opener := dbtest.NewOpener(t, mysql.Dialect{})
	opener.Fail(target.WithDatabase(""), errors.New("connection refused"))

	restorer := &fakeRestorer{}
	tr := NewTransfer(opener)
	tr.Dumper = fakeDumper{data: sampleDump}
	tr.Restorer = restorer

	var connErr *model.ConnectionError
	assert.ErrorAs(t, tr.Run(context.Background(), source, target), &connErr)
	assert.Zero(t, restorer.got.Len())
}
