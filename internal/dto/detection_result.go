package dto

import "encoding/json"

// ObjectBBox is one detection as returned by the recognition service.
// Err is set when the entry itself could not be decoded.
type ObjectBBox struct {
	ClassName string `json:"class_name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Err       error  `json:"-"`
}

// InferenceResponse is the body of POST /inference.
type InferenceResponse struct {
	ObjectBBox []ObjectBBox `json:"object_bbox"`
}

// RawInferenceResponse keeps object_bbox entries undecoded.
type RawInferenceResponse struct {
	ObjectBBox []json.RawMessage `json:"object_bbox"`
}

// Boxes decodes every entry on its own. A malformed entry yields an
// ObjectBBox with Err set and does not affect its siblings.
func (r RawInferenceResponse) Boxes() []ObjectBBox {
	boxes := make([]ObjectBBox, 0, len(r.ObjectBBox))
	for _, raw := range r.ObjectBBox {
		var box ObjectBBox
		if err := json.Unmarshal(raw, &box); err != nil {
			box = ObjectBBox{Err: err}
		}
		boxes = append(boxes, box)
	}
	return boxes
}
