package pipeline

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/pageflow"
	"golang.org/x/time/rate"
)

// DefaultBurst is the number of requests a host may receive back to back
// before pacing starts.
const DefaultBurst = 1

var _ pageflow.HostLimiter = (*HostLimiter)(nil)

// HostLimiter paces fetches with one token bucket per host, so records for
// different sites never wait on each other. Hosts are compared case
// insensitively and include the port.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewHostLimiter returns a HostLimiter allowing rps requests per second to
// each host, with bursts of up to burst requests. A burst below 1 is raised
// to 1.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Wait blocks until the host of rawURL may receive another request.
// Returns EINVALID if rawURL has no host.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	return l.bucket(host).Wait(ctx)
}

// Hosts returns the number of hosts seen so far.
func (l *HostLimiter) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *HostLimiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[host] = b
	}
	return b
}

func hostKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", pageflow.Errorf(pageflow.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", pageflow.Errorf(pageflow.EINVALID, "URL %q has no host", rawURL)
	}
	return strings.ToLower(u.Host), nil
}
