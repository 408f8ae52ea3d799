package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/model"
	"migrateData/threading"
)

// LagProber measures how long a fresh write on the primary takes to show up
// on each replica. Table must have the probe table layout.
type LagProber struct {
	Opener   db.Opener
	Table    string
	Budget   int
	Interval time.Duration
}

// MeasureLag inserts one marker record on primary and polls every replica
// for it concurrently, at most Budget lookups each with a fixed Interval
// between them. The error is set only when the marker could not be written;
// replica failures are reported in the measurements.
func (self *LagProber) MeasureLag(ctx context.Context, primary model.StoreEndpoint, replicas []model.StoreEndpoint) ([]model.LagMeasurement, error) {
	id, insertedAt, err := self.insertMarker(ctx, primary)
	if err != nil {
		return nil, err
	}
	slog.Infof("[%s] marker %d inserted, polling %d replicas", primary, id, len(replicas))

	return threading.Each(replicas, func(_ int, ep model.StoreEndpoint) model.LagMeasurement {
		m := self.poll(ctx, ep, id, insertedAt)
		if m.Observed {
			slog.Infof("%s", m.GetLog())
		} else {
			slog.Warnf("%s", m.GetLog())
		}
		return m
	}), nil
}

func (self *LagProber) insertMarker(ctx context.Context, primary model.StoreEndpoint) (int64, time.Time, error) {
	conn, err := self.Opener.Open(ctx, primary)
	if err != nil {
		return 0, time.Time{}, err
	}
	defer conn.Close()

	id, err := conn.Dialect.InsertProbeRecord(ctx, conn, self.Table, uuid.NewString())
	if err != nil {
		return 0, time.Time{}, &model.ProbeError{Endpoint: primary.String(), Err: fmt.Errorf("insertMarker -> %w", err)}
	}
	//autocommit, the record is visible on the primary from here
	return id, time.Now(), nil
}

func (self *LagProber) poll(ctx context.Context, ep model.StoreEndpoint, id int64, insertedAt time.Time) (m model.LagMeasurement) {
	m = model.LagMeasurement{Endpoint: ep.String(), RecordID: id}
	fail := func(err error) {
		m.Err = err
		m.Error = err.Error()
	}
	defer func() {
		if r := recover(); r != nil {
			m.Observed = false
			fail(&model.ProbeError{Endpoint: m.Endpoint, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if self.Budget <= 0 {
		fail(&model.LagTimeoutError{Endpoint: m.Endpoint, RecordID: id, Interval: self.Interval})
		return
	}

	conn, err := self.Opener.Open(ctx, ep)
	if err != nil {
		fail(&model.ProbeError{Endpoint: m.Endpoint, Err: err})
		return
	}
	defer conn.Close()

	q := conn.Quote
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", q("id"), q(self.Table), q("id"), conn.Dialect.Placeholder(1))
	var observedAt time.Time
	n, ok, err := threading.Poll(ctx, self.Budget, self.Interval, func(int) (bool, error) {
		var got int64
		err := conn.QueryRowContext(ctx, query, id).Scan(&got)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		observedAt = time.Now()
		return true, nil
	})
	m.Attempts = n
	if ok {
		m.Observed = true
		m.Lag = observedAt.Sub(insertedAt)
		return
	}
	fail(&model.LagTimeoutError{Endpoint: m.Endpoint, RecordID: id, Attempts: n, Interval: self.Interval, LastErr: err})
	return
}
