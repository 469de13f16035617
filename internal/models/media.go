package models

// MediaItem is one loaded image or sampled video frame. Data holds the JPEG
// bytes sent to the recognition service.
type MediaItem struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Index   int    `json:"index"`
	VideoID string `json:"video_id,omitempty"`
	Frame   int    `json:"frame,omitempty"` // decoded frame number, counted from 1
	FrameID string `json:"frame_id,omitempty"`
	Data    []byte `json:"-"`
}
