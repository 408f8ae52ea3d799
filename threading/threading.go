package threading

import (
	"github.com/gookit/slog"
	"golang.org/x/sync/errgroup"
)

// Pool runs tasks on at most Size goroutines. Tasks report their own
// outcome; one task failing never stops the others.
type Pool struct {
	Size int
	g    *errgroup.Group
}

func NewPool(workerNum int) *Pool {
	if workerNum <= 0 {
		panic("workerNum must > 0")
	}
	g := new(errgroup.Group)
	g.SetLimit(workerNum)
	return &Pool{Size: workerNum, g: g}
}

// AddTask blocks while all workers are busy.
func (p *Pool) AddTask(t func()) {
	p.g.Go(func() error {
		t()
		return nil
	})
}

func (p *Pool) Join() {
	_ = p.g.Wait()
}

// Each runs fn once per item, one worker per item, and returns the results
// in item order after every call has returned.
func Each[T, R any](items []T, fn func(i int, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	slog.Debugf("start pool, size=%d", len(items))
	p := NewPool(len(items))
	for i := range items {
		i := i
		p.AddTask(func() {
			//each worker writes only its own slot
			results[i] = fn(i, items[i])
		})
	}
	p.Join()
	return results
}
