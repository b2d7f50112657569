package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipmark/clipmark/pkg/util"
)

const (
	// DefaultFPSCeiling is the frame rate at or above which every other
	// frame is sampled instead of every frame.
	DefaultFPSCeiling = 30
	// DefaultFallbackFPS is assumed when the container reports no usable
	// frame rate.
	DefaultFallbackFPS = 30
	// progressUpdates bounds progress callback cadence per job.
	progressUpdates = 20
)

// ProgressFunc receives sampling progress at a bounded cadence.
type ProgressFunc func(percent float64, extracted, total int)

// Options configures one image-sequence extraction.
type Options struct {
	Input    string
	OutDir   string // must exist
	Start    float64
	End      float64
	Progress ProgressFunc
}

// Result summarizes one extraction. A cancelled run reports the partial
// count here rather than through an error.
type Result struct {
	Extracted   int
	TotalFrames int
	FPS         float64
	FrameSkip   int
}

// Sampler writes still images for the frames of a time range, using direct
// frame-indexed decoding.
type Sampler struct {
	logger      zerolog.Logger
	open        OpenReaderFunc
	fpsCeiling  float64
	fallbackFPS float64
	now         func() time.Time
}

// Option is a functional option for configuring Sampler
type Option func(*Sampler)

// WithReaderOpen sets a custom reader constructor (for testing)
func WithReaderOpen(open OpenReaderFunc) Option {
	return func(s *Sampler) {
		s.open = open
	}
}

// WithFPSCeiling sets the frame rate at which sampling drops to every
// other frame.
func WithFPSCeiling(ceiling float64) Option {
	return func(s *Sampler) {
		if ceiling > 0 {
			s.fpsCeiling = ceiling
		}
	}
}

// WithFallbackFPS sets the frame rate assumed for containers that report
// none.
func WithFallbackFPS(fps float64) Option {
	return func(s *Sampler) {
		if fps > 0 {
			s.fallbackFPS = fps
		}
	}
}

// WithClock sets the timestamp source used in image file names (for testing)
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// New creates a sampler using the compiled-in frame reader.
func New(logger zerolog.Logger, opts ...Option) *Sampler {
	s := &Sampler{
		logger:      logger.With().Str("component", "sampler").Logger(),
		open:        OpenReader,
		fpsCeiling:  DefaultFPSCeiling,
		fallbackFPS: DefaultFallbackFPS,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract writes one JPEG per sampled frame in [Start, End) into OutDir.
//
// A single undecodable frame is skipped, never fatal. Cancellation through
// ctx stops between frames and returns the partial result with a nil error;
// the caller distinguishes cancelled from complete via ctx.Err(). A result
// with zero extracted frames and a nil error also covers the
// decoder-unavailable case, which callers resolve through the subprocess
// fallback.
func (s *Sampler) Extract(ctx context.Context, opts Options) (Result, error) {
	reader, err := s.open(opts.Input)
	if err != nil {
		if errors.Is(err, ErrDecoderUnavailable) {
			s.logger.Warn().Str("input", opts.Input).Msg("direct decoding unavailable")
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("failed to open video for sampling: %w", err)
	}
	defer reader.Close()

	fps := reader.FPS()
	if fps <= 0 {
		fps = s.fallbackFPS
		s.logger.Warn().
			Str("input", opts.Input).
			Float64("assumed_fps", fps).
			Msg("container reports no usable frame rate")
	}

	skip := 1
	if fps >= s.fpsCeiling {
		skip = 2
	}

	startFrame := int(opts.Start * fps)
	endFrame := int(opts.End * fps)

	total := 0
	if endFrame > startFrame {
		total = (endFrame - startFrame + skip - 1) / skip
	}

	res := Result{TotalFrames: total, FPS: fps, FrameSkip: skip}
	if total == 0 {
		return res, nil
	}

	s.logger.Info().
		Int("start_frame", startFrame).
		Int("end_frame", endFrame).
		Int("skip", skip).
		Float64("fps", fps).
		Msg("sampling frames")

	stem := util.Stem(opts.Input)
	stamp := s.now().Format("20060102_150405")

	step := total / progressUpdates
	if step < 1 {
		step = 1
	}

	for idx := startFrame; idx < endFrame; idx += skip {
		select {
		case <-ctx.Done():
			s.logger.Info().Int("extracted", res.Extracted).Msg("sampling cancelled")
			return res, nil
		default:
		}

		data, err := reader.ReadFrame(idx)
		if err != nil {
			s.logger.Warn().Int("frame", idx).Err(err).Msg("skipping undecodable frame")
			continue
		}

		name := fmt.Sprintf("%s_%s_frame%06d.jpg", stem, stamp, idx)
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), data, 0644); err != nil {
			s.logger.Warn().Str("file", name).Err(err).Msg("failed to write frame")
			continue
		}
		res.Extracted++

		if opts.Progress != nil && (res.Extracted%step == 0 || res.Extracted == total) {
			percent := float64(res.Extracted) / float64(total) * 100
			opts.Progress(percent, res.Extracted, total)
		}
	}

	s.logger.Info().
		Int("extracted", res.Extracted).
		Int("total", res.TotalFrames).
		Msg("sampling complete")

	return res, nil
}
