package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger is anything that can report whether its backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const (
	componentDatabase = "database"
	componentCache    = "cache"
	componentStorage  = "storage"
)

// HealthStatus reports 1 for a reachable dependency and 0 for a failing or
// unconfigured one.
type HealthStatus struct {
	Database int `json:"database"`
	Cache    int `json:"cache"`
	Storage  int `json:"storage"`
	Uptime   int `json:"uptime"`
}

type prober struct {
	components map[string]Pinger
	started    time.Time
	up         *prometheus.GaugeVec
}

func newProber(components map[string]Pinger, reg prometheus.Registerer) *prober {
	p := &prober{
		components: components,
		started:    time.Now(),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waitlist_dependency_up",
			Help: "Whether the last health check reached the dependency.",
		}, []string{"dependency"}),
	}
	if reg != nil {
		reg.MustRegister(p.up)
	}
	return p
}

// probe pings every component concurrently and waits for all of them.
func (p *prober) probe(ctx context.Context, logger *log.Logger) map[string]int {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]int, len(p.components))
	)

	for name, pinger := range p.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			up := ping(ctx, name, pinger, logger)

			mu.Lock()
			results[name] = up
			mu.Unlock()
			p.up.WithLabelValues(name).Set(float64(up))
		}()
	}
	wg.Wait()

	return results
}

func ping(ctx context.Context, name string, pinger Pinger, logger *log.Logger) int {
	if pinger == nil {
		logger.Debug("Health check skipped", "dependency", name, "reason", "not configured")
		return 0
	}

	start := time.Now()
	if err := pinger.Ping(ctx); err != nil {
		logger.Warn("Health check failed", "dependency", name, "error", err)
		return 0
	}
	logger.Debug("Health check passed", "dependency", name, "latency", time.Since(start).String())
	return 1
}

func (p *prober) status(ctx context.Context, logger *log.Logger) HealthStatus {
	results := p.probe(ctx, logger)
	return HealthStatus{
		Database: results[componentDatabase],
		Cache:    results[componentCache],
		Storage:  results[componentStorage],
		Uptime:   int(time.Since(p.started).Seconds()),
	}
}
