package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

const SkippedPrerequisite = "skipped: prerequisite failed"

type TableDescriptor struct {
	Name     string
	Columns  []string
	RowCount int64
}

// ChunkSpec is one page of a table copy.
type ChunkSpec struct {
	Table  string
	Offset int64
	Limit  int64
}

func (self ChunkSpec) String() string {
	return fmt.Sprintf("%s[%d,%d)", self.Table, self.Offset, self.Offset+self.Limit)
}

type CopyResult struct {
	SourceDb   string        `json:"source_db" bson:"source_db"`
	TargetDb   string        `json:"target_db" bson:"target_db"`
	Table      string        `json:"table" bson:"table"`
	SourceRows int64         `json:"source_rows" bson:"source_rows"`
	Rows       int64         `json:"rows" bson:"rows"`
	Chunks     int           `json:"chunks" bson:"chunks"`
	Elapsed    time.Duration `json:"elapsed" bson:"elapsed"`
	Status     Status        `json:"status" bson:"status"`
	Reason     string        `json:"reason,omitempty" bson:"reason,omitempty"`
	Err        error         `json:"-" bson:"-"`
}

func (self *CopyResult) Fail(err error) {
	self.Err = err
	self.Reason = err.Error()
	if self.Rows > 0 {
		self.Status = StatusPartial
	} else {
		self.Status = StatusFailed
	}
}

func (self *CopyResult) GetLog() string {
	return fmt.Sprintf("[%s.%s] [Status:%s SourceRows:%d Rows:%d Chunks:%d Elapsed:%.2fs]", self.TargetDb, self.Table, self.Status, self.SourceRows, self.Rows, self.Chunks, self.Elapsed.Seconds())
}

type SchemaResult struct {
	SourceDb string        `json:"source_db" bson:"source_db"`
	TargetDb string        `json:"target_db" bson:"target_db"`
	Tables   []string      `json:"tables" bson:"tables"`
	Created  []string      `json:"created" bson:"created"`
	Existing []string      `json:"existing,omitempty" bson:"existing,omitempty"`
	Elapsed  time.Duration `json:"elapsed" bson:"elapsed"`
	Status   Status        `json:"status" bson:"status"`
	Reason   string        `json:"reason,omitempty" bson:"reason,omitempty"`
	Err      error         `json:"-" bson:"-"`
}

func (self *SchemaResult) Fail(err error) {
	self.Err = err
	self.Reason = err.Error()
	self.Status = StatusFailed
}

type ProbeResult struct {
	Endpoint   string        `json:"endpoint" bson:"endpoint"`
	Operations int           `json:"operations" bson:"operations"`
	Elapsed    time.Duration `json:"elapsed" bson:"elapsed"`
	Error      string        `json:"error,omitempty" bson:"error,omitempty"`
	Err        error         `json:"-" bson:"-"`
}

func (self *ProbeResult) Fail(err error) {
	self.Err = err
	self.Error = err.Error()
}

func (self *ProbeResult) GetLog() string {
	if self.Err != nil {
		return fmt.Sprintf("[%s] [Error:%s]", self.Endpoint, self.Error)
	}
	return fmt.Sprintf("[%s] [Operations:%d Elapsed:%.4fs]", self.Endpoint, self.Operations, self.Elapsed.Seconds())
}

// LagMeasurement: Observed is only true when the record id was found; Lag
// is meaningful only then.
type LagMeasurement struct {
	Endpoint string        `json:"endpoint" bson:"endpoint"`
	RecordID int64         `json:"record_id" bson:"record_id"`
	Attempts int           `json:"attempts" bson:"attempts"`
	Observed bool          `json:"observed" bson:"observed"`
	Lag      time.Duration `json:"lag" bson:"lag"`
	Error    string        `json:"error,omitempty" bson:"error,omitempty"`
	Err      error         `json:"-" bson:"-"`
}

func (self *LagMeasurement) GetLog() string {
	if self.Observed {
		return fmt.Sprintf("[%s] [Record:%d Attempts:%d Lag:%s]", self.Endpoint, self.RecordID, self.Attempts, self.Lag)
	}
	return fmt.Sprintf("[%s] [Record:%d Attempts:%d not observed] %s", self.Endpoint, self.RecordID, self.Attempts, self.Error)
}

type StageResult struct {
	Name    string        `json:"name" bson:"name"`
	Target  string        `json:"target,omitempty" bson:"target,omitempty"`
	Status  Status        `json:"status" bson:"status"`
	Message string        `json:"message,omitempty" bson:"message,omitempty"`
	Elapsed time.Duration `json:"elapsed" bson:"elapsed"`
	Err     error         `json:"-" bson:"-"`
}

func (self *StageResult) Fail(err error) {
	self.Err = err
	self.Message = err.Error()
	self.Status = StatusFailed
}

func (self *StageResult) Skip(reason string) {
	self.Status = StatusSkipped
	self.Message = reason
}

// Coordinates are the binary log position reported by a primary.
type Coordinates struct {
	File          string `json:"file" bson:"file"`
	Position      int64  `json:"position" bson:"position"`
	ExecutedGtids string `json:"executed_gtids,omitempty" bson:"executed_gtids,omitempty"`
}
