package ffmpeg

import (
	"fmt"

	"github.com/clipmark/clipmark/pkg/util"
)

// AudioFormat selects the encoder for audio extraction.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatWAV AudioFormat = "wav"
)

// Ext returns the output file extension for the format.
func (f AudioFormat) Ext() string {
	switch f {
	case FormatWAV:
		return ".wav"
	default:
		return ".mp3"
	}
}

// Command construction is pure: no validation, no side effects. Seek flags
// are placed after -i for the trim commands (output seeking), trading slower
// decode for frame-accurate timestamps at arbitrary cut points.

// TrimVideoArgs builds the argument vector for re-encoding a video segment.
// Stream copy is never used: copying at non-keyframe boundaries produces
// corrupt or misaligned output.
func TrimVideoArgs(tool, input, output string, start, end float64) []string {
	return []string{
		tool,
		"-y",
		"-i", input,
		"-ss", util.FormatClock(start),
		"-to", util.FormatClock(end),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-strict", "experimental",
		output,
	}
}

// ExtractAudioArgs builds the argument vector for extracting the audio track
// of a segment. The video stream is stripped; unrecognized formats fall back
// to mp3.
func ExtractAudioArgs(tool, input, output string, start, end float64, format AudioFormat) []string {
	args := []string{
		tool,
		"-y",
		"-i", input,
		"-ss", util.FormatClock(start),
		"-to", util.FormatClock(end),
		"-vn",
	}

	switch format {
	case FormatWAV:
		args = append(args, "-acodec", "pcm_s16le")
	default:
		args = append(args, "-acodec", "libmp3lame", "-ab", "192k")
	}

	return append(args, output)
}

// ImageFallbackArgs builds the argument vector for subprocess image-sequence
// extraction. Unlike the trim commands this seeks before the input (input
// seeking) since per-frame accuracy is handled by the fps filter. fps <= 0
// omits the filter and every decoded frame is written.
func ImageFallbackArgs(tool, input, outPattern string, start, end float64, quality int, fps float64) []string {
	args := []string{
		tool,
		"-y",
		"-ss", util.FormatClock(start),
		"-to", util.FormatClock(end),
		"-i", input,
		"-qscale:v", fmt.Sprintf("%d", quality),
	}

	if fps > 0 {
		args = append(args, "-vf", fmt.Sprintf("fps=%g", fps))
	}

	return append(args, outPattern)
}
