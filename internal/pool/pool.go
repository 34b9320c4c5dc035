// Package pool runs trigger jobs (lookups, replacements, rebuilds) on a fixed
// set of worker goroutines.
package pool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/uuidtrans/internal/log"
)

// DefaultWorkers is the default number of worker goroutines.
const DefaultWorkers = 2

// DefaultQueueSize is the default number of jobs that may wait for a worker.
const DefaultQueueSize = 64

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work. ctx is cancelled when the pool is closed.
type Job func(ctx context.Context)

// Config holds configuration for the pool.
type Config struct {
	Workers   int // worker goroutines (default: 2)
	QueueSize int // pending jobs before Submit blocks (default: 64)
}

type task struct {
	name string
	job  Job
}

// Pool is a fixed-size worker pool.
type Pool struct {
	queue   chan task
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex // guards queue close against Submit
	closed  atomic.Bool
	wg      sync.WaitGroup
	workers int
	done    atomic.Int64
}

// New starts a pool.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:   make(chan task, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: cfg.Workers,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(i)
	}
	log.Debug(log.CatPool, "Worker pool started", "workers", cfg.Workers, "queue", cfg.QueueSize)
	return p
}

// Submit enqueues job. It blocks while the queue is full, returning
// ctx.Err() if ctx ends first, and returns ErrPoolClosed after Close.
func (p *Pool) Submit(ctx context.Context, name string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task{name: name, job: job}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, runs the ones already queued, and waits for
// every worker to exit. Jobs see their ctx cancelled only after the queue has
// drained. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.queue)
	p.mu.Unlock()

	log.Debug(log.CatPool, "Closing worker pool")
	p.wg.Wait()
	p.cancel()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Completed returns how many jobs have finished, including ones that panicked.
func (p *Pool) Completed() int64 {
	return p.done.Load()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(id, t)
	}
}

func (p *Pool) run(id int, t task) {
	defer p.done.Add(1)
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatPool, "Job panic recovered",
				"job", t.name,
				"worker", id,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	t.job(p.ctx)
}
