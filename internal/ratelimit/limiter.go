// Package ratelimit enforces fixed-window request caps per client identity.
//
// Every identity has one counter per global window, shared by all limited
// routes, and one counter per route-scoped window for each route it calls.
// State lives in process memory and is lost on restart.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Window allows at most Max accepted requests per Period.
type Window struct {
	Period time.Duration `yaml:"period"`
	Max    int           `yaml:"max"`
}

func (w Window) String() string {
	return fmt.Sprintf("%d/%s", w.Max, w.Period)
}

// Policy is the set of windows enforced for each identity.
type Policy struct {
	Global   []Window `yaml:"global"`
	PerRoute []Window `yaml:"per_route"`
}

// DefaultPolicy: a daily and an hourly cap across routes, and a per-minute
// cap on each limited route.
func DefaultPolicy() Policy {
	return Policy{
		Global: []Window{
			{Period: 24 * time.Hour, Max: 200},
			{Period: time.Hour, Max: 50},
		},
		PerRoute: []Window{
			{Period: time.Minute, Max: 10},
		},
	}
}

func (p Policy) Validate() error {
	for _, w := range append(append([]Window{}, p.Global...), p.PerRoute...) {
		if w.Period <= 0 {
			return fmt.Errorf("rate window %s: period must be > 0", w)
		}
		if w.Max <= 0 {
			return fmt.Errorf("rate window %s: max must be > 0", w)
		}
	}
	return nil
}

// ParseWindows parses "200/24h,50/1h" into windows.
func ParseWindows(s string) ([]Window, error) {
	var out []Window
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		countStr, periodStr, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("rate window %q: expected <max>/<period>", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return nil, fmt.Errorf("rate window %q: %w", part, err)
		}
		period, err := time.ParseDuration(strings.TrimSpace(periodStr))
		if err != nil {
			return nil, fmt.Errorf("rate window %q: %w", part, err)
		}
		out = append(out, Window{Period: period, Max: n})
	}
	return out, nil
}

// Decision is the outcome of a Check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the blocking window resets; zero when allowed.
	RetryAfter time.Duration
	// Window is the first exhausted window; zero when allowed.
	Window Window
}

type counter struct {
	count int
	start time.Time
}

// used returns the count still in effect at now; an elapsed window counts as zero.
func (c *counter) used(w Window, now time.Time) int {
	if c.start.IsZero() || now.Sub(c.start) >= w.Period {
		return 0
	}
	return c.count
}

func (c *counter) hit(w Window, now time.Time) {
	if c.start.IsZero() || now.Sub(c.start) >= w.Period {
		c.count = 0
		c.start = now
	}
	c.count++
}

type entry struct {
	mu      sync.Mutex
	global  []counter
	routes  map[string][]counter
	evicted bool
}

// Limiter is safe for concurrent use.
type Limiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*entry
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(policy Policy, opts ...Option) *Limiter {
	l := &Limiter{
		policy:  policy,
		now:     time.Now,
		clients: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Policy() Policy { return l.policy }

func (l *Limiter) entry(identity string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[identity]
	if !ok {
		e = &entry{
			global: make([]counter, len(l.policy.Global)),
			routes: make(map[string][]counter),
		}
		l.clients[identity] = e
	}
	return e
}

// Check accepts or rejects one request from identity on route. An accepted
// request increments every applicable counter; a rejected one changes nothing.
func (l *Limiter) Check(identity, route string) Decision {
	for {
		e := l.entry(identity)
		e.mu.Lock()
		if e.evicted {
			// swept between lookup and lock; the map holds a fresh entry now
			e.mu.Unlock()
			continue
		}
		d := l.check(e, route)
		e.mu.Unlock()
		return d
	}
}

func (l *Limiter) check(e *entry, route string) Decision {
	now := l.now()

	for i, w := range l.policy.Global {
		if d, blocked := exhausted(&e.global[i], w, now); blocked {
			return d
		}
	}

	rc := e.routes[route]
	for i, w := range l.policy.PerRoute {
		if rc == nil {
			break
		}
		if d, blocked := exhausted(&rc[i], w, now); blocked {
			return d
		}
	}

	for i, w := range l.policy.Global {
		e.global[i].hit(w, now)
	}
	if len(l.policy.PerRoute) > 0 {
		if rc == nil {
			rc = make([]counter, len(l.policy.PerRoute))
			e.routes[route] = rc
		}
		for i, w := range l.policy.PerRoute {
			rc[i].hit(w, now)
		}
	}

	return Decision{Allowed: true}
}

func exhausted(c *counter, w Window, now time.Time) (Decision, bool) {
	if c.used(w, now) < w.Max {
		return Decision{}, false
	}
	return Decision{
		Allowed:    false,
		RetryAfter: c.start.Add(w.Period).Sub(now),
		Window:     w,
	}, true
}

// Sweep drops identities whose counters have all expired and returns how
// many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.clients {
		e.mu.Lock()
		if l.idle(e, now) {
			e.evicted = true
			delete(l.clients, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

func (l *Limiter) idle(e *entry, now time.Time) bool {
	for i, w := range l.policy.Global {
		if e.global[i].used(w, now) > 0 {
			return false
		}
	}
	for _, rc := range e.routes {
		for i, w := range l.policy.PerRoute {
			if rc[i].used(w, now) > 0 {
				return false
			}
		}
	}
	return true
}

// Len reports the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
