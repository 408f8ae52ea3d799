package probe

import (
	"context"
	"fmt"
	"math/rand"

	"migrateData/db"
	"migrateData/model"
)

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Workload runs against an already opened connection and returns the number
// of operations it completed.
type Workload func(ctx context.Context, conn *db.Conn) (int, error)

func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// RandomReads issues n random single-row samples of table.
func RandomReads(table string, n int) Workload {
	return func(ctx context.Context, conn *db.Conn) (int, error) {
		query := conn.Dialect.RandomSample(table)
		for i := 0; i < n; i++ {
			rows, err := conn.QueryContext(ctx, query)
			if err != nil {
				return i, fmt.Errorf("RandomReads -> %w", err)
			}
			for rows.Next() {
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return i, fmt.Errorf("RandomReads -> %w", err)
			}
		}
		return n, nil
	}
}

// RandomWrites inserts n rows of 50 random letters in one transaction.
// Nothing counts as written until the commit succeeds.
func RandomWrites(table string, n int) Workload {
	return func(ctx context.Context, conn *db.Conn) (int, error) {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("RandomWrites -> %w", err)
		}
		defer tx.Rollback()

		for i := 0; i < n; i++ {
			if _, err := conn.Dialect.InsertProbeRecord(ctx, tx, table, RandomString(50)); err != nil {
				return 0, fmt.Errorf("RandomWrites -> %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("RandomWrites -> %w", err)
		}
		return n, nil
	}
}

// Setup creates the probe database and table on the primary if absent.
// primary.Database names the probe database.
func Setup(ctx context.Context, opener db.Opener, primary model.StoreEndpoint, table string) error {
	admin, err := opener.Open(ctx, primary.WithDatabase(""))
	if err != nil {
		return err
	}
	err = admin.Dialect.CreateDatabase(ctx, admin, primary.Database)
	admin.Close()
	if err != nil {
		return &model.ProbeError{Endpoint: primary.String(), Err: fmt.Errorf("Setup -> %w", err)}
	}

	conn, err := opener.Open(ctx, primary)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Dialect.CreateProbeTable(ctx, conn, table); err != nil {
		return &model.ProbeError{Endpoint: primary.String(), Err: fmt.Errorf("Setup -> %w", err)}
	}
	return nil
}
