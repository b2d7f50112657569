package sampler

import "errors"

// ErrDecoderUnavailable indicates no frame-indexed decoder was compiled in.
// Extraction then reports zero frames and callers fall through to the
// subprocess path.
var ErrDecoderUnavailable = errors.New("frame decoding not available: build with '-tags=opencv' and install OpenCV/GoCV")

// FrameReader provides frame-indexed random access to a video.
type FrameReader interface {
	// FPS returns the container frame rate, or 0 when unreported.
	FPS() float64
	// ReadFrame seeks to the given frame index, decodes it and returns the
	// frame encoded as JPEG.
	ReadFrame(index int) ([]byte, error)
	Close() error
}

// OpenReaderFunc opens a video for frame-indexed reading.
type OpenReaderFunc func(path string) (FrameReader, error)
