package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	applog "athena/internal/log"
)

// Cleaner is a cache whose expired entries can be swept.
type Cleaner interface {
	CleanExpired() int
	Size() int
}

// Manager sweeps registered caches on an interval until stopped.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Cleaner
	swept  *prometheus.CounterVec

	stop     context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Cleaner),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_expired_removed_total",
			Help: "Expired entries removed by the periodic sweep.",
		}, []string{"cache"}),
	}
}

// Collector exports the sweep counter.
func (m *Manager) Collector() prometheus.Collector {
	return m.swept
}

// Register adds a cache under name. Registering a name again replaces it.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sweep cleans every registered cache once and returns the removed count
// per cache.
func (m *Manager) Sweep() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := make(map[string]int, len(m.caches))
	for name, c := range m.caches {
		n := c.CleanExpired()
		removed[name] = n
		m.swept.WithLabelValues(name).Add(float64(n))
	}
	return removed
}

// StartCleanup sweeps every interval until ctx is done or Stop is called.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	ctx, m.stop = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for name, n := range m.Sweep() {
					if n > 0 {
						slog.Debug("Expired cache entries removed",
							applog.FieldComponent, applog.ComponentCache, "cache", name, "count", n, "size", m.size(name))
					}
				}
			}
		}
	}()
}

func (m *Manager) size(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.caches[name]; ok {
		return c.Size()
	}
	return 0
}

// Stop ends the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.stop == nil {
			return
		}
		m.stop()
		<-m.done
	})
}
