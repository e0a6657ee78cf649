package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/time/rate"
)

// Result is the outcome of publishing one event to one relay.
type Result struct {
	Relay string
	Err   error
}

type Publisher interface {
	// PublishAll sends ev to every relay and returns one result per relay, in input order.
	PublishAll(ctx context.Context, relays []string, ev nostr.Event) []Result
}

type conn interface {
	Publish(ctx context.Context, ev nostr.Event) error
	Close() error
}

type dialFunc func(ctx context.Context, url string) (conn, error)

func dialRelay(ctx context.Context, url string) (conn, error) {
	r, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type Options struct {
	Concurrency   int
	Timeout       time.Duration
	RatePerSecond float64
}

type publisher struct {
	dial     dialFunc
	opts     Options
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewPublisher(opts Options) Publisher {
	return newPublisher(dialRelay, opts)
}

func newPublisher(dial dialFunc, opts Options) *publisher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &publisher{dial: dial, opts: opts, limiters: map[string]*rate.Limiter{}}
}

func (p *publisher) limiter(url string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[url]
	if !ok {
		limit := rate.Inf
		if p.opts.RatePerSecond > 0 {
			limit = rate.Limit(p.opts.RatePerSecond)
		}
		l = rate.NewLimiter(limit, 1)
		p.limiters[url] = l
	}
	return l
}

func (p *publisher) PublishAll(ctx context.Context, relays []string, ev nostr.Event) []Result {
	results := make([]Result, len(relays))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.opts.Concurrency)

	for i, url := range relays {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			err := p.publishOne(ctx, url, ev)
			if err != nil {
				slog.Info("relay publish failed", "relay", url, "event", ev.ID, "error", err)
			}
			results[i] = Result{Relay: url, Err: err}
		}(i, url)
	}

	wg.Wait()
	return results
}

func (p *publisher) publishOne(ctx context.Context, url string, ev nostr.Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.limiter(url).Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limited: %w", url, err)
	}
	c, err := p.dial(ctx, url)
	if err != nil {
		return fmt.Errorf("%s: connect: %w", url, err)
	}
	defer c.Close()

	if err := c.Publish(ctx, ev); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}
	return nil
}
