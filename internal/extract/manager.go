package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipmark/clipmark/internal/event"
	"github.com/clipmark/clipmark/internal/ffmpeg"
	"github.com/clipmark/clipmark/internal/sampler"
	"github.com/clipmark/clipmark/internal/segment"
	"github.com/clipmark/clipmark/pkg/util"
)

// Kind identifies one extraction pipeline variant.
type Kind int

const (
	KindVideo Kind = iota
	KindImages
	KindAudio
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImages:
		return "images"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Lifecycle event names published on the bus.
const (
	EventProgress  = "extract.progress"
	EventComplete  = "extract.complete"
	EventError     = "extract.error"
	EventCancelled = "extract.cancelled"
)

var (
	// ErrBusy rejects a request while a job of the same kind is running.
	// The running job is unaffected; requests are not queued.
	ErrBusy = errors.New("extraction already in progress")
	// ErrNoSegment means no segment could be resolved for the request.
	ErrNoSegment = errors.New("no segment selected or saved")
	// ErrNoSource means no video has been loaded.
	ErrNoSource = errors.New("no video loaded")
)

type commandRunner interface {
	Run(ctx context.Context, argv []string) ffmpeg.CommandResult
}

type imageSampler interface {
	Extract(ctx context.Context, opts sampler.Options) (sampler.Result, error)
	Fallback(ctx context.Context, opts sampler.FallbackOptions) (int, error)
}

// Options wires a Manager's collaborators.
type Options struct {
	Runner  commandRunner
	Sampler imageSampler
	// Prober may be nil when ffprobe is unavailable
	Prober *ffmpeg.Prober
	// ToolPath is the resolved ffmpeg executable; empty disables the
	// subprocess-backed extractions with an explanatory error
	ToolPath    string
	OutputDir   string
	JPEGQuality int
	FPSCeiling  float64
	// Selected supplies the segment currently highlighted in the UI
	Selected func() *segment.Segment
	// Now is the clock for output naming (overridable in tests)
	Now func() time.Time
}

// Manager runs one extraction job per kind on a background goroutine and
// publishes lifecycle events. Jobs of different kinds run in parallel;
// a second request of a running kind is rejected, not queued. Each job gets
// its own cancellation token so cancelling never aborts an unrelated job
// unless CancelAll is used.
type Manager struct {
	logger  zerolog.Logger
	bus     *event.Bus
	store   *segment.Store
	runner  commandRunner
	sampler imageSampler
	prober  *ffmpeg.Prober

	toolPath    string
	outputDir   string
	jpegQuality int
	fpsCeiling  float64
	selected    func() *segment.Segment
	now         func() time.Time

	source atomic.Value // string: full path of the loaded video

	busy    [kindCount]atomic.Bool
	mu      sync.Mutex
	cancels map[Kind]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a manager publishing on bus and reading segments from store.
func New(logger zerolog.Logger, bus *event.Bus, store *segment.Store, opts Options) *Manager {
	m := &Manager{
		logger:      logger.With().Str("component", "extract").Logger(),
		bus:         bus,
		store:       store,
		runner:      opts.Runner,
		sampler:     opts.Sampler,
		prober:      opts.Prober,
		toolPath:    opts.ToolPath,
		outputDir:   opts.OutputDir,
		jpegQuality: opts.JPEGQuality,
		fpsCeiling:  opts.FPSCeiling,
		selected:    opts.Selected,
		now:         opts.Now,
		cancels:     make(map[Kind]context.CancelFunc),
	}
	if m.jpegQuality <= 0 {
		m.jpegQuality = 2
	}
	if m.fpsCeiling <= 0 {
		m.fpsCeiling = sampler.DefaultFPSCeiling
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.source.Store("")
	return m
}

// SetSource records the loaded video's full path.
func (m *Manager) SetSource(path string) {
	m.source.Store(path)
}

// IsBusy reports whether a job of the given kind is running.
func (m *Manager) IsBusy(kind Kind) bool {
	return m.busy[kind].Load()
}

// Busy reports whether any job is running.
func (m *Manager) Busy() bool {
	for k := Kind(0); k < kindCount; k++ {
		if m.busy[k].Load() {
			return true
		}
	}
	return false
}

// Cancel requests cooperative cancellation of the running job of one kind.
func (m *Manager) Cancel(kind Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[kind]; ok {
		cancel()
	}
}

// CancelAll requests cooperative cancellation of every in-flight job.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cancel := range m.cancels {
		cancel()
	}
}

// Wait blocks until all in-flight jobs have reached a terminal state.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// ExtractVideo re-encodes the resolved segment into a standalone video file.
// Input errors are returned synchronously; no job is spawned for them.
func (m *Manager) ExtractVideo(seg *segment.Segment) error {
	job, err := m.prepare(KindVideo, seg, true)
	if err != nil {
		return err
	}

	out := filepath.Join(m.outputDir, fmt.Sprintf("%s_%s_%s.mp4",
		util.Stem(job.source),
		util.FormatClockDash(job.seg.Start),
		util.FormatClockDash(job.seg.End)))

	m.spawn(job, func(ctx context.Context) {
		args := ffmpeg.TrimVideoArgs(m.toolPath, job.source, out, job.seg.Start, job.seg.End)
		m.finishCommand(ctx, job, m.runner.Run(ctx, args), out)
	})
	return nil
}

// ExtractAudio extracts the segment's audio track in the requested format.
func (m *Manager) ExtractAudio(seg *segment.Segment, format ffmpeg.AudioFormat) error {
	job, err := m.prepare(KindAudio, seg, true)
	if err != nil {
		return err
	}

	out := filepath.Join(m.outputDir, fmt.Sprintf("%s_%s_%s%s",
		util.Stem(job.source),
		util.FormatClockDash(job.seg.Start),
		util.FormatClockDash(job.seg.End),
		format.Ext()))

	m.spawn(job, func(ctx context.Context) {
		args := ffmpeg.ExtractAudioArgs(m.toolPath, job.source, out, job.seg.Start, job.seg.End, format)
		m.finishCommand(ctx, job, m.runner.Run(ctx, args), out)
	})
	return nil
}

// ExtractImages writes the segment's frames as an image sequence, falling
// back to subprocess extraction when direct decoding yields nothing.
func (m *Manager) ExtractImages(seg *segment.Segment) error {
	job, err := m.prepare(KindImages, seg, false)
	if err != nil {
		return err
	}

	outDir := filepath.Join(m.outputDir, fmt.Sprintf("%s_%s_%s_%s",
		util.Stem(job.source),
		util.FormatClockDash(job.seg.Start),
		util.FormatClockDash(job.seg.End),
		m.now().Format("060102")))

	m.spawn(job, func(ctx context.Context) {
		m.runImages(ctx, job, outDir)
	})
	return nil
}

type jobState struct {
	kind   Kind
	source string
	seg    segment.Segment
}

// prepare validates a request and claims the kind's busy flag. All input
// errors surface here, before any background work starts.
func (m *Manager) prepare(kind Kind, seg *segment.Segment, needsTool bool) (*jobState, error) {
	source, _ := m.source.Load().(string)
	if source == "" {
		return nil, ErrNoSource
	}
	if !util.FileExists(source) {
		return nil, fmt.Errorf("source video does not exist: %s", source)
	}
	if needsTool && m.toolPath == "" {
		return nil, ffmpeg.ErrToolNotFound
	}

	resolved := m.resolve(seg)
	if resolved == nil {
		return nil, ErrNoSegment
	}
	if err := segment.Validate(resolved.Start, resolved.End); err != nil {
		return nil, err
	}

	if err := util.EnsureDir(m.outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if !m.busy[kind].CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s %w", kind, ErrBusy)
	}

	// The job works on a copy; background goroutines never touch the store
	return &jobState{kind: kind, source: source, seg: *resolved}, nil
}

// resolve picks the segment to act on: explicit argument, else the
// UI-selected one, else the most recently saved.
func (m *Manager) resolve(seg *segment.Segment) *segment.Segment {
	if seg != nil {
		return seg
	}
	if m.selected != nil {
		if s := m.selected(); s != nil {
			return s
		}
	}
	return m.store.Last()
}

func (m *Manager) spawn(job *jobState, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.cancels[job.kind] = cancel
	m.mu.Unlock()

	m.logger.Info().
		Stringer("kind", job.kind).
		Float64("start", job.seg.Start).
		Float64("end", job.seg.End).
		Msg("starting extraction")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error().Interface("panic", rec).Msg("extraction job panicked")
				m.emitError(job.kind, fmt.Sprintf("internal error: %v", rec))
			}
			m.mu.Lock()
			delete(m.cancels, job.kind)
			m.mu.Unlock()
			m.busy[job.kind].Store(false)
			cancel()
		}()
		run(ctx)
	}()
}

// finishCommand classifies a subprocess result into exactly one terminal
// event. A reported success without the artifact on disk is downgraded to a
// failure: some audio paths can exit zero without producing a file. A killed
// or failed encode can leave a truncated output behind, which is removed.
func (m *Manager) finishCommand(ctx context.Context, job *jobState, res ffmpeg.CommandResult, out string) {
	switch {
	case ctx.Err() != nil:
		util.CleanupFiles(out)
		m.emitCancelled(job.kind, 0)

	case !res.Success:
		util.CleanupFiles(out)
		m.emitError(job.kind, res.Message)

	case !util.FileExists(out):
		m.emitError(job.kind, fmt.Sprintf("extraction reported success but produced no file: %s", filepath.Base(out)))

	default:
		m.emitComplete(job.kind, out, fmt.Sprintf("saved %s", filepath.Base(out)))
	}
}

func (m *Manager) runImages(ctx context.Context, job *jobState, outDir string) {
	if err := util.EnsureDir(outDir); err != nil {
		m.emitError(job.kind, fmt.Sprintf("failed to create image folder: %v", err))
		return
	}

	res, err := m.sampler.Extract(ctx, sampler.Options{
		Input:  job.source,
		OutDir: outDir,
		Start:  job.seg.Start,
		End:    job.seg.End,
		Progress: func(percent float64, extracted, total int) {
			m.emitProgress(job.kind, percent, extracted, total)
		},
	})
	if err != nil {
		m.emitError(job.kind, err.Error())
		return
	}
	if ctx.Err() != nil {
		m.emitCancelled(job.kind, res.Extracted)
		return
	}
	if res.Extracted > 0 {
		m.emitComplete(job.kind, outDir, fmt.Sprintf("extracted %d images", res.Extracted))
		return
	}

	// Zero frames: either the decoder cannot handle this codec or the range
	// is empty; a single count check cannot tell them apart, so the
	// subprocess path decides.
	if m.toolPath == "" {
		m.emitError(job.kind, "no frames decoded and "+ffmpeg.ErrToolNotFound.Error())
		return
	}

	count, err := m.sampler.Fallback(ctx, sampler.FallbackOptions{
		Tool:    m.toolPath,
		Input:   job.source,
		OutDir:  outDir,
		Start:   job.seg.Start,
		End:     job.seg.End,
		Quality: m.jpegQuality,
		FPS:     m.fallbackFilterFPS(ctx, job.source),
	})
	switch {
	case ctx.Err() != nil:
		m.emitCancelled(job.kind, count)
	case err != nil:
		m.emitError(job.kind, err.Error())
	case count == 0:
		m.emitError(job.kind, "no valid frames in selected range")
	default:
		m.emitComplete(job.kind, outDir, fmt.Sprintf("extracted %d images", count))
	}
}

// fallbackFilterFPS mirrors the sampler's stride rule for the subprocess
// path: halve the rate of high-frame-rate sources, otherwise keep every
// frame (no filter).
func (m *Manager) fallbackFilterFPS(ctx context.Context, source string) float64 {
	if m.prober == nil {
		return 0
	}
	info, err := m.prober.Probe(ctx, source)
	if err != nil || info.FPS <= 0 {
		return 0
	}
	if info.FPS >= m.fpsCeiling {
		return info.FPS / 2
	}
	return 0
}

func (m *Manager) emitProgress(kind Kind, percent float64, extracted, total int) {
	m.bus.Emit(EventProgress, event.Fields{
		"kind":      kind.String(),
		"percent":   percent,
		"extracted": extracted,
		"total":     total,
	})
}

func (m *Manager) emitComplete(kind Kind, path, message string) {
	m.logger.Info().Stringer("kind", kind).Str("path", path).Msg("extraction complete")
	m.emitProgress(kind, 100, 0, 0)
	m.bus.Emit(EventComplete, event.Fields{
		"kind":    kind.String(),
		"path":    path,
		"message": message,
	})
}

func (m *Manager) emitError(kind Kind, message string) {
	m.logger.Error().Stringer("kind", kind).Str("message", message).Msg("extraction failed")
	m.bus.Emit(EventError, event.Fields{
		"kind":    kind.String(),
		"message": message,
	})
}

func (m *Manager) emitCancelled(kind Kind, extracted int) {
	m.logger.Info().Stringer("kind", kind).Int("extracted", extracted).Msg("extraction cancelled")
	m.bus.Emit(EventCancelled, event.Fields{
		"kind":      kind.String(),
		"extracted": extracted,
	})
}
