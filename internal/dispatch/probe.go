package dispatch

import (
	"sync"
	"time"

	"github.com/forkerproj/forker/internal/daemon"
)

// ProbeTimeout bounds a single reachability probe (§5, default 1s).
const ProbeTimeout = 1 * time.Second

// negativeCacheTTL bounds how long a failed probe is remembered,
// avoiding thundering-herd reprobing (§4.5).
const negativeCacheTTL = 2 * time.Second

// Prober checks whether the daemon endpoint is reachable, caching
// negative results for a bounded interval.
type Prober struct {
	Network string
	Addr    string
	Cookie  []byte

	mu           sync.Mutex
	lastFailedAt time.Time
	hasFailed    bool
}

// Reachable reports whether the daemon answers a HELLO within
// ProbeTimeout. A prior failure within negativeCacheTTL short-circuits
// to false without dialing again.
func (p *Prober) Reachable() bool {
	p.mu.Lock()
	if p.hasFailed && time.Since(p.lastFailedAt) < negativeCacheTTL {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	err := daemon.Probe(p.Network, p.Addr, p.Cookie, ProbeTimeout)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.hasFailed = true
		p.lastFailedAt = time.Now()
		return false
	}
	p.hasFailed = false
	return true
}
