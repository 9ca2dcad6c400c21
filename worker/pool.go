package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/menuwatch/menuwatch/models"
)

// Pool consumes queued job ids with a fixed set of workers. The queue is
// bounded; Enqueue fails fast when it is full instead of blocking API
// handlers.
type Pool struct {
	orch    *Orchestrator
	queue   chan string
	workers int
	log     *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

func NewPool(orch *Orchestrator, workers, queueSize int, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		orch:    orch,
		queue:   make(chan string, queueSize),
		workers: workers,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	p.log.Info("worker pool started", "workers", p.workers, "queue_size", cap(p.queue))
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-p.queue:
			if !ok {
				return
			}
			p.orch.Run(ctx, jobID)
		}
	}
}

// Enqueue hands a job id to the pool. Returns an error when the queue is
// full; the job stays pending and the caller decides what to tell the
// client.
func (p *Pool) Enqueue(jobID string) error {
	select {
	case p.queue <- jobID:
		return nil
	default:
		return models.NewScrapeError(models.ErrCodeRateLimited,
			"scrape queue is full, try again later", nil)
	}
}

// Shutdown stops accepting work and waits for in-flight jobs to finish.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.queue)
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
	})
}
