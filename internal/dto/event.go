package dto

// Event types pushed to viewers.
const (
	EventOverlay      = "overlay"
	EventConnectivity = "connectivity"
	EventNotice       = "notice"
	EventProgress     = "progress"
)

// Rect is a display rectangle as sent to viewers.
type Rect struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
}

// Overlay describes what the main screen shows for the current item.
type Overlay struct {
	Name   string `json:"name,omitempty"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Rects  []Rect `json:"rects"`
}

// Progress reports batch processing position.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Event is a single message on the viewer websocket.
type Event struct {
	Type     string    `json:"type"`
	Overlay  *Overlay  `json:"overlay,omitempty"`
	State    string    `json:"state,omitempty"`
	Notice   *Notice   `json:"notice,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
}
