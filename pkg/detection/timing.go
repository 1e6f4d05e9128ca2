package detection

import (
	"sync"
	"time"

	"github.com/NeuralTrust/BotGate/pkg/domain/classification"
	"github.com/NeuralTrust/BotGate/pkg/infra/cache"
	"github.com/NeuralTrust/BotGate/pkg/infra/fingerprint"
)

const (
	WindowSize = 10

	MinIntervalSamples       = 3
	MinSequentialPaths       = 5
	RegularityMaxDeviationMs = 200
	RegularityMaxMeanMs      = 5000

	timingSignalWeight = 25

	DefaultWindowTTL = 60 * time.Second
)

const (
	ReasonConsistentTiming = "suspiciously consistent timing"
	ReasonSequentialAccess = "sequential page access pattern"
)

// ring is a fixed-size FIFO; pushing into a full ring evicts the oldest item.
type ring[T any] struct {
	buf   [WindowSize]T
	start int
	size  int
}

func (r *ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring[T]) Len() int {
	return r.size
}

// Values returns the items oldest first.
func (r *ring[T]) Values() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// TimingWindow is the bounded request history of one identity.
type TimingWindow struct {
	mu        sync.Mutex
	lastSeen  time.Time
	intervals ring[int64]
	paths     ring[string]
}

func NewTimingWindow() *TimingWindow {
	return &TimingWindow{}
}

// TimingSnapshot is a copy of a window taken right after an observation.
type TimingSnapshot struct {
	IntervalsMs []int64
	Paths       []string
}

// Observe records a request and returns the resulting history. The whole
// read-modify-write runs under the window lock.
func (w *TimingWindow) Observe(path string, at time.Time) TimingSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastSeen.IsZero() {
		w.lastSeen = at
	} else if interval := at.Sub(w.lastSeen); interval >= 0 {
		w.intervals.Push(interval.Milliseconds())
		w.lastSeen = at
	}
	// Parallel requests can reach the window out of arrival order. The late
	// one contributes its path but no interval, and lastSeen never moves back.
	w.paths.Push(path)

	return TimingSnapshot{
		IntervalsMs: w.intervals.Values(),
		Paths:       w.paths.Values(),
	}
}

// BehaviorAnalyzer keeps one TimingWindow per identity and flags
// machine-like cadence and traversal.
type BehaviorAnalyzer struct {
	windows *cache.TTLMap[*TimingWindow]
}

func NewBehaviorAnalyzer(windows *cache.TTLMap[*TimingWindow]) *BehaviorAnalyzer {
	return &BehaviorAnalyzer{windows: windows}
}

func (a *BehaviorAnalyzer) Analyze(id fingerprint.Identity, path string, at time.Time) []classification.Signal {
	window := a.windows.GetOrCreate(id.ID(), NewTimingWindow)
	return EvaluateTiming(window.Observe(path, at))
}

func (a *BehaviorAnalyzer) Windows() int {
	return a.windows.Len()
}

func (a *BehaviorAnalyzer) Reset() {
	a.windows.Clear()
}

// EvaluateTiming runs both anomaly checks once enough intervals exist.
func EvaluateTiming(s TimingSnapshot) []classification.Signal {
	if len(s.IntervalsMs) < MinIntervalSamples {
		return nil
	}
	var signals []classification.Signal
	if consistentTiming(s.IntervalsMs) {
		signals = append(signals, classification.Signal{Reason: ReasonConsistentTiming, Confidence: timingSignalWeight})
	}
	if sequentialTraversal(s.Paths) {
		signals = append(signals, classification.Signal{Reason: ReasonSequentialAccess, Confidence: timingSignalWeight})
	}
	return signals
}

func consistentTiming(intervals []int64) bool {
	mean := meanOf(intervals)
	var deviation float64
	for _, v := range intervals {
		d := float64(v) - mean
		if d < 0 {
			d = -d
		}
		deviation += d
	}
	deviation /= float64(len(intervals))
	return deviation < RegularityMaxDeviationMs && mean < RegularityMaxMeanMs
}

func sequentialTraversal(paths []string) bool {
	if len(paths) < MinSequentialPaths {
		return false
	}
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}
	return true
}

func meanOf(values []int64) float64 {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}
