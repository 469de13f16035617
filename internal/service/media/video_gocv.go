package media

import (
	"fmt"

	"gocv.io/x/gocv"

	"objectsrecognition/internal/apperr"
)

// GocvDecoder decodes video files with OpenCV.
type GocvDecoder struct{}

func (GocvDecoder) Open(path string) (FrameReader, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open video %s: %v", apperr.ErrInvalidInput, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: cannot open video %s", apperr.ErrInvalidInput, path)
	}
	return &gocvReader{capture: capture, mat: gocv.NewMat()}, nil
}

type gocvReader struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func (r *gocvReader) Next() bool {
	return r.capture.Read(&r.mat) && !r.mat.Empty()
}

func (r *gocvReader) Encode() ([]byte, int, int, error) {
	buf, err := gocv.IMEncode(".jpg", r.mat)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode frame: %v", err)
	}
	defer buf.Close()

	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())
	return frame, r.mat.Cols(), r.mat.Rows(), nil
}

// Err is always nil; OpenCV reports a broken stream as its end.
func (r *gocvReader) Err() error {
	return nil
}

func (r *gocvReader) Close() error {
	r.mat.Close()
	return r.capture.Close()
}
