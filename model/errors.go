package model

import (
	"fmt"
	"time"
)

type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SchemaFetchError means the source structure of a table could not be read.
type SchemaFetchError struct {
	Table string
	Err   error
}

func (e *SchemaFetchError) Error() string {
	return fmt.Sprintf("fetch schema of %s: %s", e.Table, e.Err)
}

func (e *SchemaFetchError) Unwrap() error { return e.Err }

// SchemaApplyError means the target rejected a creation statement.
type SchemaApplyError struct {
	Table string
	Err   error
}

func (e *SchemaApplyError) Error() string {
	return fmt.Sprintf("apply schema of %s: %s", e.Table, e.Err)
}

func (e *SchemaApplyError) Unwrap() error { return e.Err }

type ChunkReadError struct {
	Table  string
	Offset int64
	Limit  int64
	Err    error
}

func (e *ChunkReadError) Error() string {
	return fmt.Sprintf("read %s rows [%d,%d): %s", e.Table, e.Offset, e.Offset+e.Limit, e.Err)
}

func (e *ChunkReadError) Unwrap() error { return e.Err }

type ChunkWriteError struct {
	Table  string
	Offset int64
	Limit  int64
	Err    error
}

func (e *ChunkWriteError) Error() string {
	return fmt.Sprintf("write %s rows [%d,%d): %s", e.Table, e.Offset, e.Offset+e.Limit, e.Err)
}

func (e *ChunkWriteError) Unwrap() error { return e.Err }

type ProbeError struct {
	Endpoint string
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %s", e.Endpoint, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// LagTimeoutError is reported when the retry budget ran out before the probe
// record became visible. LastErr holds the last lookup failure, if any.
type LagTimeoutError struct {
	Endpoint string
	RecordID int64
	Attempts int
	Interval time.Duration
	LastErr  error
}

func (e *LagTimeoutError) Error() string {
	msg := fmt.Sprintf("record %d not observed on %s after %d attempts (interval %s)", e.RecordID, e.Endpoint, e.Attempts, e.Interval)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *LagTimeoutError) Unwrap() error { return e.LastErr }
