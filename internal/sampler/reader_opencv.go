//go:build opencv

package sampler

import (
	"fmt"

	"gocv.io/x/gocv"
)

// videoReader is the GoCV-backed FrameReader.
type videoReader struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenReader opens a video for frame-indexed decoding through OpenCV.
func OpenReader(path string) (FrameReader, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video: %s", path)
	}

	return &videoReader{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

func (r *videoReader) FPS() float64 {
	return r.capture.Get(gocv.VideoCaptureFPS)
}

func (r *videoReader) ReadFrame(index int) ([]byte, error) {
	r.capture.Set(gocv.VideoCapturePosFrames, float64(index))

	if ok := r.capture.Read(&r.mat); !ok || r.mat.Empty() {
		return nil, fmt.Errorf("failed to decode frame %d", index)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, r.mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", index, err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

func (r *videoReader) Close() error {
	r.mat.Close()
	return r.capture.Close()
}
