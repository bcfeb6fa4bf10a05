package expense

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Update is one published refresh. Err is set when the cycle failed.
type Update struct {
	Seq       uint64
	Dashboard Dashboard
	Err       error
}

type FetchFunc func(ctx context.Context) (Dashboard, error)

// Poller refreshes a dashboard on an interval. Each cycle gets a higher sequence
// number. A cycle still in flight when the next one starts is left to finish, but
// its result is dropped once a newer cycle has been published.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	updates  chan Update

	mu     sync.RWMutex
	latest *Update
}

func NewPoller(fetch FetchFunc, interval time.Duration) *Poller {
	return &Poller{
		fetch:    fetch,
		interval: interval,
		updates:  make(chan Update),
	}
}

// Updates delivers published results in sequence order. It is closed when Run returns.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Latest returns the last published result, if any.
func (p *Poller) Latest() (Update, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Update{}, false
	}
	return *p.latest, true
}

// Run fetches immediately and then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	results := make(chan Update)
	var seq, published uint64

	startCycle := func() {
		seq++
		go func(cycle uint64) {
			dashboard, err := p.fetch(ctx)
			select {
			case results <- Update{Seq: cycle, Dashboard: dashboard, Err: err}:
			case <-ctx.Done():
			}
		}(seq)
	}

	startCycle()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Dashboard poller stopped")
			return
		case <-ticker.C:
			startCycle()
		case result := <-results:
			if ctx.Err() != nil {
				return
			}
			if result.Seq <= published {
				log.Tracef("Dropping stale dashboard cycle %d (published %d)", result.Seq, published)
				continue
			}
			published = result.Seq
			p.mu.Lock()
			p.latest = &result
			p.mu.Unlock()
			select {
			case p.updates <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}
