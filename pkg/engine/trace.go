package engine

import (
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/fiber"
)

const (
	renderTraceSamplesDefault   = 240
	defaultRenderTraceThreshold = 16667 * time.Microsecond
)

// RenderSample is one committed generation.
type RenderSample struct {
	Timestamp  int64   `json:"ts"`
	Generation uint64  `json:"generation"`
	RenderMs   float64 `json:"renderMs"`
	CommitMs   float64 `json:"commitMs"`
	Units      int     `json:"units"`
	Turns      int     `json:"turns"`
	Placements int     `json:"placements"`
	Updates    int     `json:"updates"`
	Deletions  int     `json:"deletions"`
}

// RenderTimeline is the debug server response shape.
type RenderTimeline struct {
	Samples     []RenderSample `json:"samples"`
	SlowRenders int            `json:"slowRenders"`
	Discarded   int            `json:"discarded"`
	Failures    int            `json:"failures"`
	ThresholdMs float64        `json:"thresholdMs"`
}

// RenderTraceBuffer stores recent render samples in a ring buffer. It
// implements fiber.Observer.
type RenderTraceBuffer struct {
	mu        sync.RWMutex
	samples   []RenderSample
	index     int
	count     int
	slow      int
	discarded int
	failures  int
	threshold time.Duration
}

var _ fiber.Observer = (*RenderTraceBuffer)(nil)

// NewRenderTraceBuffer creates a buffer holding capacity samples. Renders
// slower than threshold are counted as slow.
func NewRenderTraceBuffer(capacity int, threshold time.Duration) *RenderTraceBuffer {
	if capacity <= 0 {
		capacity = renderTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultRenderTraceThreshold
	}
	return &RenderTraceBuffer{
		samples:   make([]RenderSample, capacity),
		threshold: threshold,
	}
}

// Capacity returns the buffer capacity.
func (b *RenderTraceBuffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Threshold returns the slow render threshold.
func (b *RenderTraceBuffer) Threshold() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.threshold
}

// Add records a render sample and updates the slow render count.
func (b *RenderTraceBuffer) Add(sample RenderSample, renderDuration time.Duration) {
	b.mu.Lock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	if renderDuration > b.threshold {
		b.slow++
	}
	b.mu.Unlock()
}

// Snapshot returns a chronological copy of samples and stats.
func (b *RenderTraceBuffer) Snapshot() RenderTimeline {
	b.mu.RLock()
	defer b.mu.RUnlock()

	timeline := RenderTimeline{
		SlowRenders: b.slow,
		Discarded:   b.discarded,
		Failures:    b.failures,
		ThresholdMs: durationToMillis(b.threshold),
	}
	if b.count == 0 {
		return timeline
	}

	result := make([]RenderSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}
	timeline.Samples = result
	return timeline
}

func (b *RenderTraceBuffer) UnitPerformed(string) {}

func (b *RenderTraceBuffer) Yielded() {}

func (b *RenderTraceBuffer) Discarded(uint64) {
	b.mu.Lock()
	b.discarded++
	b.mu.Unlock()
}

func (b *RenderTraceBuffer) Failed(error) {
	b.mu.Lock()
	b.failures++
	b.mu.Unlock()
}

func (b *RenderTraceBuffer) Committed(stats fiber.RenderStats) {
	b.Add(RenderSample{
		Timestamp:  stats.Started.UnixMilli(),
		Generation: stats.Generation,
		RenderMs:   durationToMillis(stats.Render),
		CommitMs:   durationToMillis(stats.Commit),
		Units:      stats.Units,
		Turns:      stats.Turns,
		Placements: stats.Placements,
		Updates:    stats.Updates,
		Deletions:  stats.Deletions,
	}, stats.Render)
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
