// Package dbtest provides a db.Opener backed by sqlmock, keyed by endpoint.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"migrateData/db"
	"migrateData/model"
)

type entry struct {
	conn *db.Conn
	mock sqlmock.Sqlmock
	err  error
}

// Opener hands out one prepared connection per Expect call. Opening an
// endpoint with nothing prepared fails with a ConnectionError.
type Opener struct {
	t       testing.TB
	dialect db.Dialect

	mu      sync.Mutex
	pending map[string][]entry
	mocks   []sqlmock.Sqlmock
	opened  []string
}

func NewOpener(t testing.TB, d db.Dialect) *Opener {
	return &Opener{t: t, dialect: d, pending: make(map[string][]entry)}
}

// Expect prepares the next Open of ep and returns its mock. Queries are
// matched literally.
func (self *Opener) Expect(ep model.StoreEndpoint) sqlmock.Sqlmock {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		self.t.Fatalf("sqlmock.New: %s", err)
	}
	self.t.Cleanup(func() { sqlDB.Close() })

	self.mu.Lock()
	defer self.mu.Unlock()
	key := ep.String()
	self.pending[key] = append(self.pending[key], entry{conn: db.NewConn(sqlDB, self.dialect, ep), mock: mock})
	self.mocks = append(self.mocks, mock)
	return mock
}

// Fail makes the next Open of ep return err wrapped in a ConnectionError.
func (self *Opener) Fail(ep model.StoreEndpoint, err error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	key := ep.String()
	self.pending[key] = append(self.pending[key], entry{err: err})
}

func (self *Opener) Open(_ context.Context, ep model.StoreEndpoint) (*db.Conn, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	key := ep.String()
	self.opened = append(self.opened, key)
	queue := self.pending[key]
	if len(queue) == 0 {
		return nil, &model.ConnectionError{Endpoint: key, Err: fmt.Errorf("no connection prepared")}
	}
	self.pending[key] = queue[1:]
	if queue[0].err != nil {
		return nil, &model.ConnectionError{Endpoint: key, Err: queue[0].err}
	}
	return queue[0].conn, nil
}

// Opened returns the endpoints passed to Open, in call order.
func (self *Opener) Opened() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]string(nil), self.opened...)
}

// Verify asserts that every prepared mock saw all of its expectations.
func (self *Opener) Verify() {
	self.mu.Lock()
	defer self.mu.Unlock()
	for _, mock := range self.mocks {
		assert.NoError(self.t, mock.ExpectationsWereMet())
	}
}
