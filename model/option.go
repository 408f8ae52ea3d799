package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize         = 10000
	DefaultProbeDb          = "replication_test_db"
	DefaultProbeTable       = "performance_test"
	DefaultInserts          = 1000
	DefaultSelectMultiplier = 10
	DefaultRetryBudget      = 10
	DefaultRetryInterval    = 100 * time.Millisecond
)

type Options struct {
	Driver           string
	Source           string
	Target           string
	Replicas         string
	User             string
	Password         string
	TargetUser       string
	TargetPassword   string
	ReplicaUser      string
	ReplicaPassword  string
	Db               string
	Tables           string
	SkipTables       string
	PageSize         int
	SkipExisting     bool
	ProbeDb          string
	ProbeTable       string
	Inserts          int
	SelectMultiplier int
	RetryBudget      int
	RetryInterval    time.Duration
	StageTimeout     time.Duration
	ReportFile       string

	SourceEndpoint   StoreEndpoint
	TargetEndpoint   StoreEndpoint
	ReplicaEndpoints []StoreEndpoint
	DbGroupList      [][2]string
	TableList        []string
	SkipTableList    []string
}

// Init validates the raw flag values and fills the parsed fields. The
// source and db flags are only required when needSource is set.
func (self *Options) Init(needSource bool) (err error) {
	if self.Driver == "" {
		self.Driver = DefaultDriver
	}

	//credentials
	if self.User == "" {
		return fmt.Errorf("user must not be empty")
	}
	if self.TargetUser == "" {
		self.TargetUser = self.User
	}
	if self.TargetPassword == "" {
		self.TargetPassword = self.Password
	}
	if self.ReplicaUser == "" {
		self.ReplicaUser = self.TargetUser
	}
	if self.ReplicaPassword == "" {
		self.ReplicaPassword = self.TargetPassword
	}

	//endpoints
	if needSource {
		self.SourceEndpoint, err = ParseEndpoint(self.Driver, self.Source, self.User, self.Password)
		if err != nil {
			return fmt.Errorf("invalid source: %w", err)
		}
	}
	self.TargetEndpoint, err = ParseEndpoint(self.Driver, self.Target, self.TargetUser, self.TargetPassword)
	if err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	self.ReplicaEndpoints = nil
	for _, addr := range splitList(self.Replicas) {
		ep, err := ParseEndpoint(self.Driver, addr, self.ReplicaUser, self.ReplicaPassword)
		if err != nil {
			return fmt.Errorf("invalid replica: %w", err)
		}
		self.ReplicaEndpoints = append(self.ReplicaEndpoints, ep)
	}

	//db groups, eq: db1,db2:db02
	self.DbGroupList = nil
	for _, dbstr := range splitList(self.Db) {
		var dbgroup [2]string
		g := strings.Split(dbstr, ":")
		if len(g) == 2 {
			dbgroup[0] = g[0]
			dbgroup[1] = g[1]
		} else {
			dbgroup[0] = g[0]
			dbgroup[1] = g[0]
		}
		if dbgroup[0] == "" || dbgroup[1] == "" {
			return fmt.Errorf("invalid db: %q", dbstr)
		}
		self.DbGroupList = append(self.DbGroupList, dbgroup)
	}
	if needSource && len(self.DbGroupList) == 0 {
		return fmt.Errorf("invalid db: %q", self.Db)
	}

	self.TableList = splitList(self.Tables)
	self.SkipTableList = splitList(self.SkipTables)

	if self.PageSize == 0 {
		self.PageSize = DefaultPageSize
	}
	if self.PageSize < 1 {
		return fmt.Errorf("page size must be >= 1, got %d", self.PageSize)
	}
	if self.ProbeDb == "" {
		self.ProbeDb = DefaultProbeDb
	}
	if self.ProbeTable == "" {
		self.ProbeTable = DefaultProbeTable
	}
	if self.Inserts < 0 || self.SelectMultiplier < 0 || self.RetryBudget < 0 {
		return fmt.Errorf("inserts, select multiplier and retry budget must not be negative")
	}
	if self.RetryInterval < 0 {
		return fmt.Errorf("retry interval must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var list []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}
