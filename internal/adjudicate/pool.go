package adjudicate

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/finxtract/finxtract/internal/common"
)

// Job is one unit of adjudication work submitted to the Pool.
type Job func()

// Pool bounds how many adjudication calls run concurrently, since LLM
// providers rate-limit per key and a document's conflict count can
// otherwise spike far past what a provider will accept at once.
type Pool struct {
	capacity int
	sem      chan struct{}
	wg       sync.WaitGroup
	logger   arbor.ILogger
}

// NewPool builds a Pool with the given concurrency capacity.
func NewPool(capacity int, logger arbor.ILogger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{capacity: capacity, sem: make(chan struct{}, capacity), logger: logger}
}

// Submit runs job in a panic-safe goroutine once a slot is free, blocking
// the caller until one is available. Wait must be called to block until
// every submitted job has finished.
func (p *Pool) Submit(ctx context.Context, name string, job Job) {
	p.sem <- struct{}{}
	p.wg.Add(1)
	common.SafeGoWithContext(ctx, p.logger, name, func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		job()
	})
}

// Wait blocks until every submitted job has completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}
