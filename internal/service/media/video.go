package media

import (
	"context"
	"fmt"
	"path/filepath"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
)

// FrameReader walks the decoded frames of one video, scanner style.
type FrameReader interface {
	// Next decodes the next frame. It returns false at the end of the
	// stream or on error.
	Next() bool
	// Encode returns the last decoded frame as JPEG with its size.
	Encode() (data []byte, width, height int, err error)
	Err() error
	Close() error
}

// Decoder opens video files.
type Decoder interface {
	Open(path string) (FrameReader, error)
}

// VideoSource samples frames from video files.
type VideoSource struct {
	decoder Decoder
	rate    int
}

// NewVideoSource keeps every rate-th decoded frame.
func NewVideoSource(decoder Decoder, rate int) *VideoSource {
	return &VideoSource{decoder: decoder, rate: rate}
}

// Open starts a new pass over the video at path. Every call starts again
// from the first frame.
func (s *VideoSource) Open(path string) (*FrameSequence, error) {
	if s.rate < 1 {
		return nil, fmt.Errorf("%w: frame rate must be >= 1, got %d", apperr.ErrInvalidInput, s.rate)
	}

	reader, err := s.decoder.Open(path)
	if err != nil {
		if apperr.Kind(err) == nil {
			err = fmt.Errorf("%w: cannot open video %s: %v", apperr.ErrInvalidInput, path, err)
		}
		return nil, err
	}

	return &FrameSequence{
		name:   filepath.Base(path),
		reader: reader,
		rate:   s.rate,
	}, nil
}

// FrameSequence is a lazy, finite sequence of sampled frames. Frames are
// counted from 1 and frame i is kept when i is a multiple of the rate.
type FrameSequence struct {
	name    string
	reader  FrameReader
	rate    int
	decoded int
	done    bool
}

// Name is the base name of the video file.
func (fs *FrameSequence) Name() string {
	return fs.name
}

// Next returns the next kept frame, or false when the video is exhausted.
func (fs *FrameSequence) Next(ctx context.Context) (models.MediaItem, bool, error) {
	for !fs.done {
		if err := ctx.Err(); err != nil {
			return models.MediaItem{}, false, err
		}

		if !fs.reader.Next() {
			fs.done = true
			if err := fs.reader.Err(); err != nil {
				return models.MediaItem{}, false, fmt.Errorf("%w: decoding %s failed after frame %d: %v", apperr.ErrInvalidInput, fs.name, fs.decoded, err)
			}
			break
		}

		fs.decoded++
		if fs.decoded%fs.rate != 0 {
			continue
		}

		data, width, height, err := fs.reader.Encode()
		if err != nil {
			return models.MediaItem{}, false, fmt.Errorf("%w: encoding frame %d of %s: %v", apperr.ErrInvalidInput, fs.decoded, fs.name, err)
		}
		return models.MediaItem{
			Name:   fmt.Sprintf("%s#%d", fs.name, fs.decoded),
			Width:  width,
			Height: height,
			Frame:  fs.decoded,
			Data:   data,
		}, true, nil
	}
	return models.MediaItem{}, false, nil
}

// Close releases the decoder.
func (fs *FrameSequence) Close() error {
	return fs.reader.Close()
}
