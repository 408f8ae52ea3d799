package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/migrate"
	"migrateData/model"
	"migrateData/probe"
	"migrateData/util"
)

const (
	StageSchema      = "schema"
	StageData        = "data"
	StageSetup       = "probe-setup"
	StageWrites      = "writes"
	StageReads       = "reads"
	StageLag         = "lag"
	StageCoordinates = "coordinates"
)

var (
	MigrateStages = []string{StageSchema, StageData}
	VerifyStages  = []string{StageSetup, StageWrites, StageReads, StageLag, StageCoordinates}
	AllStages     = append(append([]string{}, MigrateStages...), VerifyStages...)
)

// Runner sequences the stages of a run and collects every outcome into one
// report. A failed stage never aborts the run; only stages that depend on it
// are skipped.
type Runner struct {
	Opener   db.Opener
	Options  *model.Options
	Observer migrate.ChunkObserver
}

func NewRunner(opener db.Opener, opt *model.Options) *Runner {
	return &Runner{Opener: opener, Options: opt}
}

// Run executes the given stages in their fixed order and always returns a
// report, even when every stage failed.
func (self *Runner) Run(ctx context.Context, stages []string) *model.Report {
	rep := model.NewReport()
	defer func() { rep.Elapsed = time.Since(rep.StartedAt) }()
	opt := self.Options
	enabled := func(name string) bool { return util.InSlice(name, stages) }

	if enabled(StageSchema) || enabled(StageData) {
		rep.Source = opt.SourceEndpoint.String()
		rep.Target = opt.TargetEndpoint.String()
		self.migrate(ctx, rep, enabled(StageSchema), enabled(StageData))
	}

	verify := false
	for _, s := range VerifyStages {
		verify = verify || enabled(s)
	}
	if verify {
		rep.Target = opt.TargetEndpoint.String()
		self.verify(ctx, rep, enabled)
	}
	return rep
}

// stage runs fn under the per-stage timeout and records its result.
func (self *Runner) stage(ctx context.Context, rep *model.Report, name, target string, fn func(ctx context.Context, st *model.StageResult)) bool {
	if self.Options.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.Options.StageTimeout)
		defer cancel()
	}
	st := model.StageResult{Name: name, Target: target, Status: model.StatusSuccess}
	start := time.Now()
	fn(ctx, &st)
	st.Elapsed = time.Since(start)
	rep.AddStage(st)

	switch st.Status {
	case model.StatusFailed:
		slog.Errorf("[%s] stage %s failed: %s", target, name, st.Message)
	case model.StatusSkipped:
		slog.Warnf("[%s] stage %s skipped: %s", target, name, st.Message)
	default:
		slog.Infof("[%s] stage %s %s, cost %.2fs %s", target, name, st.Status, st.Elapsed.Seconds(), st.Message)
	}
	return st.Status != model.StatusFailed && st.Status != model.StatusSkipped
}

func skipped(rep *model.Report, name, target, reason string) {
	st := model.StageResult{Name: name, Target: target}
	st.Skip(reason)
	rep.AddStage(st)
	slog.Warnf("[%s] stage %s skipped: %s", target, name, reason)
}

func (self *Runner) migrate(ctx context.Context, rep *model.Report, schema, data bool) {
	opt := self.Options
	m := migrate.NewMigrator(self.Opener, opt)
	m.Observer = self.Observer

	for _, group := range opt.DbGroupList {
		sourceDb, targetDb := group[0], group[1]
		target := fmt.Sprintf("%s:%s", sourceDb, targetDb)

		schemaOK := true
		if schema {
			schemaOK = self.stage(ctx, rep, StageSchema, target, func(ctx context.Context, st *model.StageResult) {
				res := m.CopySchema(ctx, opt.SourceEndpoint, opt.TargetEndpoint, sourceDb, targetDb)
				rep.Schemas = append(rep.Schemas, res)
				if res.Err != nil {
					st.Fail(res.Err)
					return
				}
				st.Message = fmt.Sprintf("created=%d existing=%d", len(res.Created), len(res.Existing))
			})
		}
		if !data {
			continue
		}
		if !schemaOK {
			skipped(rep, StageData, target, model.SkippedPrerequisite)
			continue
		}
		self.stage(ctx, rep, StageData, target, func(ctx context.Context, st *model.StageResult) {
			results, err := m.CopyData(ctx, opt.SourceEndpoint, opt.TargetEndpoint, sourceDb, targetDb)
			rep.Copies = append(rep.Copies, results...)
			if err != nil {
				st.Fail(err)
				return
			}
			failed := 0
			for _, r := range results {
				if r.Status != model.StatusSuccess {
					failed++
				}
			}
			st.Message = fmt.Sprintf("tables=%d failed=%d", len(results), failed)
			if failed > 0 {
				st.Status = model.StatusPartial
			}
		})
	}
}

func (self *Runner) verify(ctx context.Context, rep *model.Report, enabled func(string) bool) {
	opt := self.Options
	primary := opt.TargetEndpoint.WithDatabase(opt.ProbeDb)
	replicas := make([]model.StoreEndpoint, 0, len(opt.ReplicaEndpoints))
	for _, ep := range opt.ReplicaEndpoints {
		replicas = append(replicas, ep.WithDatabase(opt.ProbeDb))
	}
	target := primary.String()

	setupOK := true
	if enabled(StageSetup) {
		setupOK = self.stage(ctx, rep, StageSetup, target, func(ctx context.Context, st *model.StageResult) {
			if err := probe.Setup(ctx, self.Opener, primary, opt.ProbeTable); err != nil {
				st.Fail(err)
			}
		})
	}

	if enabled(StageWrites) {
		if !setupOK {
			skipped(rep, StageWrites, target, model.SkippedPrerequisite)
		} else {
			self.stage(ctx, rep, StageWrites, target, func(ctx context.Context, st *model.StageResult) {
				res := probe.Run(ctx, self.Opener, primary, probe.RandomWrites(opt.ProbeTable, opt.Inserts))
				rep.Writes = &res
				if res.Err != nil {
					st.Fail(res.Err)
					return
				}
				st.Message = fmt.Sprintf("inserts=%d", res.Operations)
			})
		}
	}

	if enabled(StageReads) {
		//without replicas the primary itself is read
		readFrom := replicas
		if len(readFrom) == 0 {
			readFrom = []model.StoreEndpoint{primary}
		}
		if !setupOK {
			skipped(rep, StageReads, target, model.SkippedPrerequisite)
		} else {
			self.stage(ctx, rep, StageReads, target, func(ctx context.Context, st *model.StageResult) {
				results := probe.RunConcurrentReads(ctx, self.Opener, readFrom, probe.RandomReads(opt.ProbeTable, opt.Inserts*opt.SelectMultiplier))
				rep.Reads = append(rep.Reads, results...)
				failed := 0
				for _, r := range results {
					if r.Err != nil {
						failed++
					}
				}
				st.Message = fmt.Sprintf("endpoints=%d failed=%d", len(results), failed)
				switch {
				case failed == len(results):
					st.Status = model.StatusFailed
				case failed > 0:
					st.Status = model.StatusPartial
				}
			})
		}
	}

	if enabled(StageLag) {
		switch {
		case !setupOK:
			skipped(rep, StageLag, target, model.SkippedPrerequisite)
		case len(replicas) == 0:
			skipped(rep, StageLag, target, "no replicas")
		default:
			self.stage(ctx, rep, StageLag, target, func(ctx context.Context, st *model.StageResult) {
				prober := &probe.LagProber{Opener: self.Opener, Table: opt.ProbeTable, Budget: opt.RetryBudget, Interval: opt.RetryInterval}
				lags, err := prober.MeasureLag(ctx, primary, replicas)
				rep.Lags = append(rep.Lags, lags...)
				if err != nil {
					st.Fail(err)
					return
				}
				missed := 0
				for _, l := range lags {
					if !l.Observed {
						missed++
					}
				}
				st.Message = fmt.Sprintf("replicas=%d not_observed=%d", len(lags), missed)
				if missed > 0 {
					st.Status = model.StatusPartial
				}
			})
		}
	}

	if enabled(StageCoordinates) {
		self.stage(ctx, rep, StageCoordinates, opt.TargetEndpoint.String(), func(ctx context.Context, st *model.StageResult) {
			self.coordinates(ctx, rep, st)
		})
	}
}

func (self *Runner) coordinates(ctx context.Context, rep *model.Report, st *model.StageResult) {
	conn, err := self.Opener.Open(ctx, self.Options.TargetEndpoint)
	if err != nil {
		st.Fail(err)
		return
	}
	defer conn.Close()

	reporter, ok := conn.Dialect.(db.CoordinateReporter)
	if !ok {
		st.Skip(fmt.Sprintf("%s: %s", conn.Dialect.Name(), db.ErrUnsupported))
		return
	}
	c, err := reporter.Coordinates(ctx, conn)
	if err != nil {
		st.Fail(err)
		return
	}
	rep.Coordinates = &c
	st.Message = fmt.Sprintf("%s:%d", c.File, c.Position)
}
