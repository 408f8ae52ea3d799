// Package dump streams a logical dump of one MySQL database into another
// through the mysqldump and mysql client programs.
package dump

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gookit/slog"
	"golang.org/x/sync/errgroup"

	"migrateData/db"
	"migrateData/model"
	"migrateData/util"
)

// Dumper writes a schema and data dump of ep.Database to w.
type Dumper interface {
	Dump(ctx context.Context, ep model.StoreEndpoint, w io.Writer) error
}

// Restorer applies a dump read from r to ep.Database.
type Restorer interface {
	Restore(ctx context.Context, ep model.StoreEndpoint, r io.Reader) error
}

// Command runs one of the MySQL client programs. The password is handed
// over through MYSQL_PWD so it never shows up in the process list.
type Command struct {
	Path string
	Args []string
}

func (self *Command) command(ctx context.Context, ep model.StoreEndpoint) *exec.Cmd {
	args := []string{
		"--host=" + ep.Host,
		"--port=" + strconv.Itoa(ep.Port),
		"--user=" + ep.Credentials.User,
	}
	args = append(args, self.Args...)
	args = append(args, ep.Database)
	cmd := exec.CommandContext(ctx, self.Path, args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+ep.Credentials.Password)
	return cmd
}

func (self *Command) run(cmd *exec.Cmd, ep model.StoreEndpoint) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s(%s) -> %w: %s", self.Path, ep, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

type MysqlDump struct{ Command }

func NewMysqlDump(args ...string) *MysqlDump {
	return &MysqlDump{Command{Path: "mysqldump", Args: args}}
}

func (self *MysqlDump) Dump(ctx context.Context, ep model.StoreEndpoint, w io.Writer) error {
	cmd := self.command(ctx, ep)
	cmd.Stdout = w
	return self.run(cmd, ep)
}

type MysqlClient struct{ Command }

func NewMysqlClient(args ...string) *MysqlClient {
	return &MysqlClient{Command{Path: "mysql", Args: args}}
}

func (self *MysqlClient) Restore(ctx context.Context, ep model.StoreEndpoint, r io.Reader) error {
	cmd := self.command(ctx, ep)
	cmd.Stdin = r
	return self.run(cmd, ep)
}

// Transfer copies source.Database into target.Database. The dump is piped
// straight into the restore with the collation rewritten on the way; no
// intermediate file is written.
type Transfer struct {
	Opener        db.Opener
	Dumper        Dumper
	Restorer      Restorer
	FromCollation string
	ToCollation   string
}

func NewTransfer(opener db.Opener) *Transfer {
	return &Transfer{
		Opener:        opener,
		Dumper:        NewMysqlDump(),
		Restorer:      NewMysqlClient(),
		FromCollation: DefaultFromCollation,
		ToCollation:   DefaultToCollation,
	}
}

func (self *Transfer) Run(ctx context.Context, source, target model.StoreEndpoint) error {
	defer util.TimeCost()(fmt.Sprintf("[%s -> %s] transfer finished", source, target))

	if err := self.ensureDatabase(ctx, target); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := self.Dumper.Dump(ctx, source, pw)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := self.Restorer.Restore(ctx, target, NewCollationReader(pr, self.FromCollation, self.ToCollation))
		//unblock the dumper if the restore stopped reading early
		pr.CloseWithError(err)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("Transfer -> %w", err)
	}
	slog.Infof("[%s] imported from %s", target, source)
	return nil
}

func (self *Transfer) ensureDatabase(ctx context.Context, target model.StoreEndpoint) error {
	admin, err := self.Opener.Open(ctx, target.WithDatabase(""))
	if err != nil {
		return err
	}
	defer admin.Close()
	if err := admin.Dialect.CreateDatabase(ctx, admin, target.Database); err != nil {
		return fmt.Errorf("ensureDatabase(%s) -> %w", target.Database, err)
	}
	return nil
}
