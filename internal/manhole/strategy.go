package manhole

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/manholectl/internal/engine"
)

var ErrExecTimeout = errors.New("manhole: execution timed out")

const (
	DefaultWorkerCount = 4
	DefaultExecTimeout = 5 * time.Second
)

// Strategy runs one compiled unit against a namespace.
type Strategy interface {
	Run(eng Engine, u *engine.Unit) (engine.Result, error)
}

// InlineStrategy executes on the calling session's goroutine. A long-running
// snippet stalls that session until it returns, and in shared mode stalls
// every session waiting on the shared namespace. Acceptable for a
// low-frequency operator tool.
type InlineStrategy struct{}

func (InlineStrategy) Run(eng Engine, u *engine.Unit) (engine.Result, error) {
	return eng.Execute(u)
}

// PooledStrategy runs units on a bounded worker pool shared by all sessions
// and bounds each await with a timeout. A timed-out execution is abandoned,
// not cancelled: it keeps its worker until it finishes and its eventual
// result and output are discarded, never delivered to any client.
type PooledStrategy struct {
	jobs      chan poolJob
	timeout   time.Duration
	closeOnce sync.Once
}

type poolJob struct {
	eng   Engine
	unit  *engine.Unit
	reply chan poolReply
}

type poolReply struct {
	res engine.Result
	err error
}

func NewPooledStrategy(workers int, timeout time.Duration) *PooledStrategy {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	p := &PooledStrategy{
		jobs:    make(chan poolJob),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *PooledStrategy) worker() {
	for job := range p.jobs {
		res, err := job.eng.Execute(job.unit)
		// reply is buffered; an abandoned job's result is simply dropped
		job.reply <- poolReply{res: res, err: err}
	}
}

func (p *PooledStrategy) Run(eng Engine, u *engine.Unit) (engine.Result, error) {
	job := poolJob{eng: eng, unit: u, reply: make(chan poolReply, 1)}
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case p.jobs <- job:
	case <-timer.C:
		return engine.Result{}, fmt.Errorf("%w after %s (worker pool saturated)", ErrExecTimeout, p.timeout)
	}
	select {
	case r := <-job.reply:
		return r.res, r.err
	case <-timer.C:
		return engine.Result{}, fmt.Errorf("%w after %s", ErrExecTimeout, p.timeout)
	}
}

// Close stops idle workers. Callers must not submit after Close.
func (p *PooledStrategy) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
}
