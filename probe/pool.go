package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/slog"

	"migrateData/db"
	"migrateData/model"
	"migrateData/threading"
)

// RunConcurrentReads runs workload once per replica, all at the same time,
// each on its own connection. It waits for every replica and returns one
// result per replica, in replica order. A failing replica only marks its own
// result.
func RunConcurrentReads(ctx context.Context, opener db.Opener, replicas []model.StoreEndpoint, workload Workload) []model.ProbeResult {
	return threading.Each(replicas, func(_ int, ep model.StoreEndpoint) model.ProbeResult {
		return Run(ctx, opener, ep, workload)
	})
}

// Run opens ep and times workload on it. Timing starts once the connection
// is up; a failed open is reported with zero elapsed time.
func Run(ctx context.Context, opener db.Opener, ep model.StoreEndpoint, workload Workload) (res model.ProbeResult) {
	res = model.ProbeResult{Endpoint: ep.String()}
	defer func() {
		if r := recover(); r != nil {
			res.Fail(&model.ProbeError{Endpoint: res.Endpoint, Err: fmt.Errorf("panic: %v", r)})
		}
		if res.Err != nil {
			slog.Errorf("%s", res.GetLog())
		} else {
			slog.Infof("%s", res.GetLog())
		}
	}()

	conn, err := opener.Open(ctx, ep)
	if err != nil {
		res.Fail(&model.ProbeError{Endpoint: res.Endpoint, Err: err})
		return
	}
	defer conn.Close()

	start := time.Now()
	ops, err := workload(ctx, conn)
	res.Elapsed = time.Since(start)
	res.Operations = ops
	if err != nil {
		res.Fail(&model.ProbeError{Endpoint: res.Endpoint, Err: err})
	}
	return
}
