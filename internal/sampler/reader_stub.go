//go:build !opencv

package sampler

// OpenReader reports the decoder as unavailable when built without GoCV.
// Image extraction still works through the subprocess fallback.
func OpenReader(path string) (FrameReader, error) {
	return nil, ErrDecoderUnavailable
}
