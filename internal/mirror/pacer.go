package mirror

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// pacer spaces out mirror requests. Each success nudges the rate up by a
// fifth, capped at twice the configured rate; each 429 halves it, floored at
// a quarter of the configured rate.
type pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	floor   rate.Limit
	ceiling rate.Limit
	current rate.Limit
}

func newPacer(perSec float64, burst int) *pacer {
	r := rate.Limit(perSec)
	if burst < 1 {
		burst = 1
	}
	return &pacer{
		limiter: rate.NewLimiter(r, burst),
		floor:   r / 4,
		ceiling: r * 2,
		current: r,
	}
}

func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *pacer) speedUp() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(min(p.current*1.2, p.ceiling))
}

func (p *pacer) backOff() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(max(p.current/2, p.floor))
	zap.L().Warn("mirror: rate limited, slowing down",
		zap.Float64("rate_per_sec", float64(p.current)),
	)
}

// set must be called with mu held.
func (p *pacer) set(r rate.Limit) {
	p.current = r
	p.limiter.SetLimit(r)
}

// Limit returns the current requests-per-second rate.
func (p *pacer) Limit() rate.Limit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
