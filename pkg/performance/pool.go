package performance

import (
	"context"
	"sync"
	"time"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
)

// ClientPool is a bounded pool of reusable handles to external I/O clients.
// Checkout blocks up to a timeout, then fails with a Resource error. Idle
// handles are evicted after IdleTimeout by a background sweep.
type ClientPool[T any] struct {
	factory      func(context.Context) (T, error)
	closer       func(T) error
	size         int
	checkoutWait time.Duration
	idleTimeout  time.Duration

	mu       sync.Mutex
	idle     []pooledClient[T]
	total    int
	waiters  chan struct{}
	closed   bool
	stopOnce sync.Once
	stop     chan struct{}

	checkouts uint64
	timeouts  uint64
}

type pooledClient[T any] struct {
	client   T
	idleFrom time.Time
}

// PoolConfig configures a ClientPool.
type PoolConfig struct {
	Size            int
	CheckoutTimeout time.Duration
	IdleTimeout     time.Duration
}

// NewClientPool creates a pool. factory builds a new handle, closer releases
// one on eviction or shutdown (may be nil).
func NewClientPool[T any](cfg PoolConfig, factory func(context.Context) (T, error), closer func(T) error) *ClientPool[T] {
	if cfg.Size <= 0 {
		cfg.Size = 8
	}
	if cfg.CheckoutTimeout <= 0 {
		cfg.CheckoutTimeout = 5 * time.Second
	}
	p := &ClientPool[T]{
		factory:      factory,
		closer:       closer,
		size:         cfg.Size,
		checkoutWait: cfg.CheckoutTimeout,
		idleTimeout:  cfg.IdleTimeout,
		waiters:      make(chan struct{}, cfg.Size),
		stop:         make(chan struct{}),
	}
	if p.idleTimeout > 0 {
		go p.sweepIdle()
	}
	return p
}

// Checkout returns a handle, creating one if under capacity, or waiting for
// a return otherwise. Exceeding the checkout timeout is a Resource error.
func (p *ClientPool[T]) Checkout(ctx context.Context) (T, error) {
	var zero T
	deadline := time.NewTimer(p.checkoutWait)
	defer deadline.Stop()

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, errors.New(errors.KindPermanent, "client pool is closed")
		}
		if n := len(p.idle); n > 0 {
			pc := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.checkouts++
			p.mu.Unlock()
			return pc.client, nil
		}
		if p.total < p.size {
			p.total++
			p.checkouts++
			p.mu.Unlock()
			client, err := p.factory(ctx)
			if err != nil {
				p.mu.Lock()
				p.total--
				p.mu.Unlock()
				return zero, errors.Wrap(err, errors.KindResource, "failed to create pooled client")
			}
			return client, nil
		}
		p.mu.Unlock()

		select {
		case <-p.waiters:
			// a handle was returned, retry
		case <-deadline.C:
			p.mu.Lock()
			p.timeouts++
			p.mu.Unlock()
			return zero, errors.New(errors.KindResource, "client pool checkout timed out").
				WithDetail("timeout", p.checkoutWait.String())
		case <-ctx.Done():
			return zero, errors.Wrap(ctx.Err(), errors.KindResource, "client pool checkout canceled")
		}
	}
}

// Return puts a handle back for reuse.
func (p *ClientPool[T]) Return(client T) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.closer != nil {
			_ = p.closer(client)
		}
		return
	}
	p.idle = append(p.idle, pooledClient[T]{client: client, idleFrom: time.Now()})
	p.mu.Unlock()

	select {
	case p.waiters <- struct{}{}:
	default:
	}
}

// Discard drops a handle without reuse, e.g. after an error that may have
// corrupted it. Frees a capacity slot.
func (p *ClientPool[T]) Discard(client T) {
	p.mu.Lock()
	p.total--
	p.mu.Unlock()
	if p.closer != nil {
		_ = p.closer(client)
	}
	select {
	case p.waiters <- struct{}{}:
	default:
	}
}

// Utilization returns checked-out handles over pool capacity.
func (p *ClientPool[T]) Utilization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.total-len(p.idle)) / float64(p.size)
}

// Close evicts all idle handles and rejects further checkouts.
func (p *ClientPool[T]) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.total -= len(idle)
	p.mu.Unlock()
	if p.closer != nil {
		for _, pc := range idle {
			_ = p.closer(pc.client)
		}
	}
}

func (p *ClientPool[T]) sweepIdle() {
	ticker := time.NewTicker(p.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.evictIdle(time.Now())
		}
	}
}

func (p *ClientPool[T]) evictIdle(now time.Time) {
	p.mu.Lock()
	var evicted []pooledClient[T]
	kept := p.idle[:0]
	for _, pc := range p.idle {
		if now.Sub(pc.idleFrom) > p.idleTimeout {
			evicted = append(evicted, pc)
		} else {
			kept = append(kept, pc)
		}
	}
	p.idle = kept
	p.total -= len(evicted)
	p.mu.Unlock()
	if p.closer != nil {
		for _, pc := range evicted {
			_ = p.closer(pc.client)
		}
	}
}
