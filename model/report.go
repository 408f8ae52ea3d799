package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const banner = "####################################################################################################\n"

type Report struct {
	StartedAt   time.Time        `json:"started_at" bson:"started_at"`
	Elapsed     time.Duration    `json:"elapsed" bson:"elapsed"`
	Source      string           `json:"source,omitempty" bson:"source,omitempty"`
	Target      string           `json:"target,omitempty" bson:"target,omitempty"`
	Stages      []StageResult    `json:"stages" bson:"stages"`
	Schemas     []SchemaResult   `json:"schemas" bson:"schemas"`
	Copies      []CopyResult     `json:"copies" bson:"copies"`
	Writes      *ProbeResult     `json:"writes,omitempty" bson:"writes,omitempty"`
	Reads       []ProbeResult    `json:"reads" bson:"reads"`
	Lags        []LagMeasurement `json:"lags" bson:"lags"`
	Coordinates *Coordinates     `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

func NewReport() *Report {
	return &Report{StartedAt: time.Now()}
}

func (self *Report) AddStage(stage StageResult) {
	self.Stages = append(self.Stages, stage)
}

// Err aggregates every failed unit; nil when all units succeeded or were
// skipped because of an already reported failure.
func (self *Report) Err() error {
	var result *multierror.Error
	for _, s := range self.Stages {
		if s.Status == StatusFailed {
			result = multierror.Append(result, fmt.Errorf("stage %s %s: %s", s.Name, s.Target, s.Message))
		}
	}
	for _, c := range self.Copies {
		if c.Status == StatusFailed || c.Status == StatusPartial {
			result = multierror.Append(result, fmt.Errorf("copy %s.%s: %s", c.TargetDb, c.Table, c.Reason))
		}
	}
	for _, r := range self.Reads {
		if r.Error != "" {
			result = multierror.Append(result, fmt.Errorf("read %s: %s", r.Endpoint, r.Error))
		}
	}
	for _, l := range self.Lags {
		if !l.Observed {
			result = multierror.Append(result, fmt.Errorf("lag %s: %s", l.Endpoint, l.Error))
		}
	}
	return result.ErrorOrNil()
}

func (self *Report) Text() string {
	var b strings.Builder
	b.WriteString("############################################ Run report ############################################\n")
	fmt.Fprintf(&b, "Started          : %s\n", self.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Elapsed          : %.2fs\n", self.Elapsed.Seconds())
	if self.Source != "" {
		fmt.Fprintf(&b, "Source           : %s\n", self.Source)
	}
	if self.Target != "" {
		fmt.Fprintf(&b, "Target           : %s\n", self.Target)
	}
	b.WriteString(banner)
	b.WriteString("Stage, Target, Status, ExecuteSeconds, Message\n")
	for _, s := range self.Stages {
		fmt.Fprintf(&b, "%s, %s, %s, %.2f, %s\n", s.Name, s.Target, s.Status, s.Elapsed.Seconds(), s.Message)
	}

	if len(self.Schemas) > 0 {
		b.WriteString(banner)
		b.WriteString("SourceDb, TargetDb, Status, Tables, Created, Existing, Reason\n")
		for _, s := range self.Schemas {
			fmt.Fprintf(&b, "%s, %s, %s, %d, %d, %d, %s\n", s.SourceDb, s.TargetDb, s.Status, len(s.Tables), len(s.Created), len(s.Existing), s.Reason)
		}
	}

	if len(self.Copies) > 0 {
		b.WriteString(banner)
		b.WriteString("TableName, Status, ExecuteSeconds, SourceRows, CopiedRows, Chunks, Reason\n")
		for _, c := range self.Copies {
			fmt.Fprintf(&b, "%s.%s, %s, %.2f, %d, %d, %d, %s\n", c.TargetDb, c.Table, c.Status, c.Elapsed.Seconds(), c.SourceRows, c.Rows, c.Chunks, c.Reason)
		}
	}

	if self.Writes != nil || len(self.Reads) > 0 {
		b.WriteString(banner)
		b.WriteString("Role, Endpoint, Operations, ExecuteSeconds, Error\n")
		if self.Writes != nil {
			fmt.Fprintf(&b, "primary, %s, %d, %.4f, %s\n", self.Writes.Endpoint, self.Writes.Operations, self.Writes.Elapsed.Seconds(), self.Writes.Error)
		}
		for _, r := range self.Reads {
			fmt.Fprintf(&b, "replica, %s, %d, %.4f, %s\n", r.Endpoint, r.Operations, r.Elapsed.Seconds(), r.Error)
		}
	}

	if len(self.Lags) > 0 {
		b.WriteString(banner)
		b.WriteString("Replica, RecordId, Attempts, Observed, LagMilliseconds, Error\n")
		for _, l := range self.Lags {
			lag := "-"
			if l.Observed {
				lag = fmt.Sprintf("%.1f", float64(l.Lag.Microseconds())/1000)
			}
			fmt.Fprintf(&b, "%s, %d, %d, %t, %s, %s\n", l.Endpoint, l.RecordID, l.Attempts, l.Observed, lag, l.Error)
		}
	}

	if self.Coordinates != nil {
		b.WriteString(banner)
		fmt.Fprintf(&b, "Primary binlog   : %s:%d\n", self.Coordinates.File, self.Coordinates.Position)
		if self.Coordinates.ExecutedGtids != "" {
			fmt.Fprintf(&b, "Executed GTIDs   : %s\n", self.Coordinates.ExecutedGtids)
		}
	}
	b.WriteString(banner)
	return b.String()
}
