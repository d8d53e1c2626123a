// Package metrics collects run counters and publishes them to Redis for the
// admin HTTP surface to read back.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKey       = "graphsentry:metrics"
	snapshotTTL    = 2 * time.Minute
	reportInterval = 30 * time.Second
)

// Snapshot is the read-only view exposed over the admin surface.
type Snapshot struct {
	StartedAt          time.Time         `json:"startedAt"`
	LastUpdated        time.Time         `json:"lastUpdated"`
	EventsProcessed    uint64            `json:"eventsProcessed"`
	AlertsEmitted      uint64            `json:"alertsEmitted"`
	AlertsDeduped      uint64            `json:"alertsDeduped"`
	AlertsThrottled    uint64            `json:"alertsThrottled"`
	TenantFailures     map[string]uint64 `json:"tenantFailuresByClass,omitempty"`
}

// Collector accumulates counters in-process and periodically flushes a
// snapshot to Redis.
type Collector struct {
	redis     *redis.Client
	startedAt time.Time

	eventsProcessed atomic.Uint64
	alertsEmitted   atomic.Uint64
	alertsDeduped   atomic.Uint64
	alertsThrottled atomic.Uint64

	mu             sync.Mutex
	tenantFailures map[string]uint64

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewCollector builds a Collector backed by redisClient. redisClient may be
// nil, in which case counters accumulate in-process but are never flushed.
func NewCollector(redisClient *redis.Client) *Collector {
	return &Collector{
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		tenantFailures: make(map[string]uint64),
		stop:           make(chan struct{}),
	}
}

// Start begins periodic flushing to Redis until ctx is done or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.flush(context.Background())
				return
			case <-c.stop:
				c.flush(context.Background())
				return
			case <-ticker.C:
				c.flush(ctx)
			}
		}
	}()
}

// Stop halts periodic flushing and waits for the final flush to complete.
func (c *Collector) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *Collector) AddEventsProcessed(n int)  { c.eventsProcessed.Add(uint64(n)) }
func (c *Collector) IncAlertsEmitted()         { c.alertsEmitted.Add(1) }
func (c *Collector) IncAlertsDeduped()         { c.alertsDeduped.Add(1) }
func (c *Collector) IncAlertsThrottled()       { c.alertsThrottled.Add(1) }

// IncTenantFailure records one failure of the given class for tenant status
// reporting purposes.
func (c *Collector) IncTenantFailure(class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantFailures[class]++
}

// Snapshot returns the current counters without touching Redis.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	failures := make(map[string]uint64, len(c.tenantFailures))
	for k, v := range c.tenantFailures {
		failures[k] = v
	}
	c.mu.Unlock()

	return Snapshot{
		StartedAt:       c.startedAt,
		LastUpdated:     time.Now().UTC(),
		EventsProcessed: c.eventsProcessed.Load(),
		AlertsEmitted:   c.alertsEmitted.Load(),
		AlertsDeduped:   c.alertsDeduped.Load(),
		AlertsThrottled: c.alertsThrottled.Load(),
		TenantFailures:  failures,
	}
}

func (c *Collector) flush(ctx context.Context) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		slog.Error("metrics: marshal snapshot failed", slog.String("error", err.Error()))
		return
	}
	if err := c.redis.Set(ctx, redisKey, data, snapshotTTL).Err(); err != nil {
		slog.Error("metrics: write to redis failed", slog.String("error", err.Error()))
	}
}

// Reader reads the last published snapshot back from Redis, for the admin
// HTTP surface to serve without holding a reference to the live Collector.
type Reader struct {
	redis *redis.Client
}

// NewReader builds a Reader over redisClient.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// Read fetches and decodes the last published snapshot.
func (r *Reader) Read(ctx context.Context) (Snapshot, error) {
	data, err := r.redis.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		return Snapshot{}, fmt.Errorf("metrics: no snapshot published yet")
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("metrics: read: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("metrics: decode: %w", err)
	}
	return snap, nil
}
