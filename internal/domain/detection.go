package domain

import "time"

// Point is a 2D coordinate. Detection geometry is expressed in frame
// pixels; region-of-interest polygons are normalized to [0,1]×[0,1].
type Point struct {
	// X is the horizontal coordinate.
	X float64 `json:"x"`

	// Y is the vertical coordinate, increasing downward.
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned rectangle in pixel coordinates, given
// by its top-left corner (X1, Y1) and bottom-right corner (X2, Y2).
// The frame origin is the top-left corner of the image.
type BoundingBox struct {
	// X1 is the left edge of the box.
	X1 float64 `json:"x1"`

	// Y1 is the top edge of the box.
	Y1 float64 `json:"y1"`

	// X2 is the right edge of the box.
	X2 float64 `json:"x2"`

	// Y2 is the bottom edge of the box.
	Y2 float64 `json:"y2"`
}

// Detection is a single object reported by a detection algorithm.
type Detection struct {
	// Box is the detection's bounding box in frame pixels.
	Box BoundingBox `json:"box"`

	// Confidence is the algorithm's confidence in this detection,
	// in the range [0,1].
	Confidence float64 `json:"confidence"`

	// ClassID is the numeric class index assigned by the algorithm.
	ClassID int `json:"class_id"`

	// ClassName is the human-readable object class, such as "person".
	ClassName string `json:"class_name"`
}

// FrameRef identifies the frame a test run operates on. Test runs
// execute against a single captured frame rather than a live stream.
type FrameRef struct {
	// SourceID identifies the camera or stream the frame came from.
	SourceID string `json:"source_id"`

	// ImageRef locates the frame image, typically an object-store key
	// or URL understood by the detection service.
	ImageRef string `json:"image_ref"`

	// Width is the frame width in pixels.
	Width int `json:"width"`

	// Height is the frame height in pixels.
	Height int `json:"height"`

	// CapturedAt records when the frame was captured.
	CapturedAt time.Time `json:"captured_at"`
}

// ConditionOutcome records how a condition node evaluated.
type ConditionOutcome struct {
	// Met reports whether the condition evaluated true.
	Met bool `json:"met"`

	// TakenPort is the output port the run continued through,
	// PortYes or PortNo.
	TakenPort string `json:"taken_port"`

	// Detail describes the comparison that was made, for report readers.
	Detail string `json:"detail,omitempty"`
}

// FunctionOutcome records a function node's metric computation and its
// comparison against the configured threshold.
type FunctionOutcome struct {
	// Met reports whether the comparison evaluated true.
	Met bool `json:"met"`

	// Metric names the geometry function that was computed.
	Metric string `json:"metric"`

	// Value is the computed metric value.
	Value float64 `json:"value"`

	// Threshold is the configured comparison threshold.
	Threshold float64 `json:"threshold"`

	// Operator is the configured comparison operator.
	Operator string `json:"operator"`

	// Detail describes the comparison that was made, for report readers.
	Detail string `json:"detail,omitempty"`
}

// AlertOutcome records how an alert node evaluated during a test run.
// No notification is delivered in test mode.
type AlertOutcome struct {
	// Triggered reports whether the alert would have fired.
	Triggered bool `json:"triggered"`

	// Suppressed reports whether a cooldown suppressed the trigger.
	Suppressed bool `json:"suppressed,omitempty"`

	// Reason explains the outcome, for report readers.
	Reason string `json:"reason,omitempty"`
}

// RecordingIntent records that a record node would have started a
// recording. No footage is written in test mode.
type RecordingIntent struct {
	// Requested reports whether the recording would have started.
	Requested bool `json:"requested"`

	// Label tags the hypothetical recording.
	Label string `json:"label,omitempty"`

	// DurationSeconds is the configured recording duration.
	DurationSeconds int `json:"duration_seconds"`
}

// Payload is the data a node emits for its downstream consumers.
// Each kind populates the fields relevant to it and leaves the rest
// zero; downstream handlers read only the fields they understand.
type Payload struct {
	// Frame is the frame introduced by a video source node.
	Frame *FrameRef `json:"frame,omitempty"`

	// Detections holds the detections produced by an algorithm node or
	// the surviving detections after an ROI filter.
	Detections []Detection `json:"detections,omitempty"`

	// DetectionCount is the number of detections in Detections.
	// Kept explicit so report consumers need not count.
	DetectionCount int `json:"detection_count"`

	// Before and After are the detection counts around an ROI filter.
	Before int `json:"before,omitempty"`
	After  int `json:"after,omitempty"`

	// Condition is set by condition nodes.
	Condition *ConditionOutcome `json:"condition,omitempty"`

	// Function is set by function nodes.
	Function *FunctionOutcome `json:"function,omitempty"`

	// Alert is set by alert nodes.
	Alert *AlertOutcome `json:"alert,omitempty"`

	// Recording is set by record nodes.
	Recording *RecordingIntent `json:"recording,omitempty"`
}

// Clone returns a deep copy of the payload. The executor hands clones
// to downstream handlers so a node can never mutate what an earlier
// node produced.
func (p Payload) Clone() Payload {
	out := p
	if p.Frame != nil {
		f := *p.Frame
		out.Frame = &f
	}
	if p.Detections != nil {
		out.Detections = make([]Detection, len(p.Detections))
		copy(out.Detections, p.Detections)
	}
	if p.Condition != nil {
		c := *p.Condition
		out.Condition = &c
	}
	if p.Function != nil {
		fn := *p.Function
		out.Function = &fn
	}
	if p.Alert != nil {
		a := *p.Alert
		out.Alert = &a
	}
	if p.Recording != nil {
		r := *p.Recording
		out.Recording = &r
	}
	return out
}
