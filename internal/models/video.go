package models

import "time"

// Video represents a processed video file.
type Video struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FrameRate int       `json:"frame_rate"`
	CreatedAt time.Time `json:"created_at"`
}

// Frame is a sampled video frame archived on disk.
type Frame struct {
	ID       string `json:"id"`
	VideoID  string `json:"video_id"`
	Number   int    `json:"number"`
	FilePath string `json:"filepath"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}
