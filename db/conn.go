package db

import (
	"context"
	"database/sql"
	"time"

	"migrateData/model"
)

// Conn is an open session pool to one endpoint. It is owned by whoever opened
// it and must not be shared between concurrent workers.
type Conn struct {
	*sql.DB
	Dialect  Dialect
	Endpoint model.StoreEndpoint
}

func NewConn(sqlDB *sql.DB, d Dialect, ep model.StoreEndpoint) *Conn {
	return &Conn{DB: sqlDB, Dialect: d, Endpoint: ep}
}

func (c *Conn) Quote(ident string) string {
	return c.Dialect.Quote(ident)
}

// Opener opens a connection to an endpoint. Implementations must not retry.
type Opener interface {
	Open(ctx context.Context, ep model.StoreEndpoint) (*Conn, error)
}

type Provider struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func NewProvider() *Provider {
	return &Provider{
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Hour,
	}
}

// Open dials the endpoint once. Every failure, unknown driver included, is
// returned as a *model.ConnectionError.
func (p *Provider) Open(ctx context.Context, ep model.StoreEndpoint) (*Conn, error) {
	d, err := Lookup(ep.Driver)
	if err != nil {
		return nil, &model.ConnectionError{Endpoint: ep.String(), Err: err}
	}
	sqlDB, err := sql.Open(d.DriverName(), d.DSN(ep))
	if err != nil {
		return nil, &model.ConnectionError{Endpoint: ep.String(), Err: err}
	}
	sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(p.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(p.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, &model.ConnectionError{Endpoint: ep.String(), Err: err}
	}
	return NewConn(sqlDB, d, ep), nil
}
