package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"pixmuse/internal/pkg/clock"
	"pixmuse/internal/pkg/config"

	"golang.org/x/sync/errgroup"
)

// WorkerStatus is one worker's health as exposed on /health/workers.
type WorkerStatus struct {
	WorkerID   string `json:"workerId"`
	IsHealthy  bool   `json:"isHealthy"`
	CurrentJob string `json:"currentJob,omitempty"`
}

// Pool runs N consumer loops against the job queue. Each loop beats a
// heartbeat every iteration; a worker whose heartbeat goes stale past
// Pipeline.HeartbeatTimeout is reported unhealthy. Shutdown is cooperative:
// fetching stops immediately, in-flight jobs get Pipeline.ShutdownGrace to
// finish, anything slower is abandoned to queue redelivery.
type Pool struct {
	source DeliverySource
	exec   *Executor
	cfg    config.PipelineConfig
	clock  clock.Clock
	log    *slog.Logger

	mu      sync.RWMutex
	workers []workerState

	cancelFetch context.CancelFunc
	done        chan struct{}
}

type workerState struct {
	id         string
	lastBeat   time.Time
	currentJob string
}

func NewPool(source DeliverySource, exec *Executor, cfg config.PipelineConfig, clock clock.Clock, log *slog.Logger) *Pool {
	return &Pool{
		source: source,
		exec:   exec,
		cfg:    cfg,
		clock:  clock,
		log:    log,
	}
}

// Start launches the worker loops. The passed context bounds startup work
// only; the loops run until Stop.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.source.EnsureGroup(ctx); err != nil {
		return err
	}

	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}

	fetchCtx, cancel := context.WithCancel(context.Background())
	p.cancelFetch = cancel
	p.done = make(chan struct{})

	now := p.clock.Now()
	p.workers = make([]workerState, p.cfg.Workers)
	for i := range p.workers {
		p.workers[i] = workerState{id: fmt.Sprintf("%s-%d", host, i), lastBeat: now}
	}

	g := new(errgroup.Group)
	for i := 0; i < p.cfg.Workers; i++ {
		idx := i
		g.Go(func() error {
			p.run(fetchCtx, idx)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(p.done)
	}()

	p.log.Info("worker pool started", "workers", p.cfg.Workers)
	return nil
}

// Stop halts fetching and drains in-flight jobs. It returns once every
// worker exits or the grace period elapses, whichever comes first.
func (p *Pool) Stop(ctx context.Context) error {
	if p.cancelFetch == nil {
		return nil
	}
	p.cancelFetch()

	grace := time.NewTimer(p.cfg.ShutdownGrace)
	defer grace.Stop()

	select {
	case <-p.done:
		p.log.Info("worker pool drained")
	case <-grace.C:
		p.log.Warn("shutdown grace elapsed, abandoning in-flight jobs to redelivery")
	case <-ctx.Done():
		p.log.Warn("shutdown context cancelled, abandoning in-flight jobs to redelivery")
	}
	return nil
}

func (p *Pool) run(ctx context.Context, idx int) {
	consumer := p.workerID(idx)
	log := p.log.With("worker", consumer)

	for {
		p.beat(idx, "")
		if ctx.Err() != nil {
			return
		}

		delivery, err := p.source.Fetch(ctx, consumer, p.cfg.FetchBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.FetchBlock):
			}
			continue
		}
		if delivery == nil {
			continue
		}

		p.beat(idx, delivery.Job.RequestID.String())
		// the job outlives fetch cancellation so shutdown can drain it
		p.exec.Process(context.WithoutCancel(ctx), delivery)
		p.beat(idx, "")
	}
}

func (p *Pool) beat(idx int, currentJob string) {
	p.mu.Lock()
	p.workers[idx].lastBeat = p.clock.Now()
	p.workers[idx].currentJob = currentJob
	p.mu.Unlock()
}

func (p *Pool) workerID(idx int) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.workers[idx].id
}

// Status reports every worker's heartbeat health and the job it is on.
func (p *Pool) Status() []WorkerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.clock.Now()
	out := make([]WorkerStatus, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, WorkerStatus{
			WorkerID:   w.id,
			IsHealthy:  now.Sub(w.lastBeat) <= p.cfg.HeartbeatTimeout,
			CurrentJob: w.currentJob,
		})
	}
	return out
}

// Healthy reports whether every worker heartbeat is fresh.
func (p *Pool) Healthy() bool {
	for _, w := range p.Status() {
		if !w.IsHealthy {
			return false
		}
	}
	return true
}
