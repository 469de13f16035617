package models

import "time"

// Detection is one recognized object as persisted in the event journal.
// X and Y are the box centre in source pixels.
type Detection struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	FrameID   string    `json:"frame_id,omitempty"`
	ClassName string    `json:"class_name"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}
