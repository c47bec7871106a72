package profiler

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// Report is one interval of frame and memory statistics.
type Report struct {
	RunID       string  `csv:"run_id"`
	Time        string  `csv:"time"`
	Frames      int     `csv:"frames"`
	FPS         float64 `csv:"fps"`
	FrameMeanMS float64 `csv:"frame_mean_ms"`
	FrameStdMS  float64 `csv:"frame_std_ms"`
	FrameP50MS  float64 `csv:"frame_p50_ms"`
	FrameP99MS  float64 `csv:"frame_p99_ms"`
	Live        int     `csv:"live"`
	HeapMB      float64 `csv:"heap_mb"`
	AllocRateMB float64 `csv:"alloc_rate_mb_s"`
	GCCount     uint32  `csv:"gc_count"`
	LastPauseUS uint64  `csv:"gc_last_pause_us"`
	MaxPauseUS  uint64  `csv:"gc_max_pause_us"`
	SysMB       float64 `csv:"sys_mb"`
}

// Profiler tracks frame rate, frame time distribution and memory statistics.
// Outputs stats to the logger, and optionally as CSV rows, at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	runID          string
	logger         *slog.Logger
	csvOut         io.Writer
	headerWritten  bool
	now            func() time.Time
	frameTimesMS   []float64
	live           int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
	reports        int
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: optional ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With("component", "profiler")
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the frame's duration and live instance count.
// Emits a Report when the update interval has elapsed.
//
// Parameters:
//   - frameTime: how long the frame took
//   - live: the live instance count drawn this frame
//
// Returns:
//   - bool: true if a report was emitted this tick, false otherwise
func (p *Profiler) Tick(frameTime time.Duration, live int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameTimesMS = append(p.frameTimesMS, float64(frameTime)/float64(time.Millisecond))
	p.live = live

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := Report{
		RunID:  p.runID,
		Time:   currentTime.UTC().Format(time.RFC3339Nano),
		Frames: len(p.frameTimesMS),
		Live:   p.live,
	}
	if elapsed > 0 {
		r.FPS = float64(r.Frames) / elapsed.Seconds()
	}
	r.FrameMeanMS, r.FrameStdMS, r.FrameP50MS, r.FrameP99MS = FrameStats(p.frameTimesMS)

	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	if elapsed > 0 {
		r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	r.GCCount = p.memStats.NumGC
	if r.GCCount > 0 {
		r.LastPauseUS = p.memStats.PauseNs[(r.GCCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if r.GCCount-startIdx > 256 {
			startIdx = r.GCCount - 256
		}
		for i := startIdx; i < r.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > r.MaxPauseUS {
				r.MaxPauseUS = pause
			}
		}
	}

	p.logger.Info("frame stats",
		"fps", r.FPS,
		"frame_mean_ms", r.FrameMeanMS,
		"frame_p99_ms", r.FrameP99MS,
		"live", r.Live,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_max_pause_us", r.MaxPauseUS,
	)
	if err := p.writeCSV(r); err != nil {
		p.logger.Warn("failed to write profiler csv", "error", err)
	}

	p.frameTimesMS = p.frameTimesMS[:0]
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = r
	p.reports++
	return true
}

func (p *Profiler) writeCSV(r Report) error {
	if p.csvOut == nil {
		return nil
	}
	records := []Report{r}
	if !p.headerWritten {
		if err := gocsv.Marshal(records, p.csvOut); err != nil {
			return fmt.Errorf("writing profiler report: %w", err)
		}
		p.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, p.csvOut); err != nil {
		return fmt.Errorf("writing profiler report: %w", err)
	}
	return nil
}

// Last returns the most recent report.
func (p *Profiler) Last() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reports returns how many reports have been emitted.
func (p *Profiler) Reports() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reports
}

// FrameStats summarizes frame times: mean, standard deviation, median and 99th percentile.
// The input is not modified. All values are zero for an empty input.
func FrameStats(samples []float64) (mean, std, p50, p99 float64) {
	if len(samples) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return mean, std, p50, p99
}
