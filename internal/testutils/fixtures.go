package testutils

import (
	"time"

	"github.com/ahrav/go-vigil/internal/domain"
)

// Graph and input fixtures shared by engine, validator, and handler
// tests. The builders favor readable call sites over configurability;
// tests needing unusual shapes assemble graphs by hand.

// Frame returns a run input describing a 1920x1080 frame with an image
// reference the detection service can resolve.
func Frame() domain.RunInput {
	return domain.RunInput{
		Frame: domain.FrameRef{
			SourceID:   "camera-entrance",
			ImageRef:   "frames/entrance/0001.jpg",
			Width:      1920,
			Height:     1080,
			CapturedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// Det builds a detection with the given box corners, confidence, and
// class name.
func Det(x1, y1, x2, y2, confidence float64, className string) domain.Detection {
	return domain.Detection{
		Box:        domain.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
		Confidence: confidence,
		ClassName:  className,
	}
}

// VideoSourceNode builds a video source node.
func VideoSourceNode(id, sourceID string) domain.Node {
	return domain.Node{
		ID:     id,
		Kind:   domain.KindVideoSource,
		Config: domain.VideoSourceConfig{SourceID: sourceID},
	}
}

// AlgorithmNode builds an algorithm node with no confidence gate and no
// class allowlist.
func AlgorithmNode(id, algorithmID string) domain.Node {
	return domain.Node{
		ID:     id,
		Kind:   domain.KindAlgorithm,
		Config: domain.AlgorithmConfig{AlgorithmID: algorithmID},
	}
}

// ConditionNode builds a condition node comparing the upstream detection
// count against target.
func ConditionNode(id string, comparison domain.CountComparison, target int) domain.Node {
	return domain.Node{
		ID:   id,
		Kind: domain.KindCondition,
		Config: domain.ConditionConfig{
			ComparisonType: comparison,
			TargetCount:    target,
		},
	}
}

// FunctionNode builds a function node computing the named metric.
func FunctionNode(id string, metric domain.MetricName, op domain.CompareOp, threshold float64) domain.Node {
	return domain.Node{
		ID:   id,
		Kind: domain.KindFunction,
		Config: domain.FunctionConfig{
			Metric:    metric,
			Operator:  op,
			Threshold: threshold,
		},
	}
}

// RoiFilterNode builds an ROI filter node over the given normalized
// polygon regions.
func RoiFilterNode(id string, mode domain.RoiMode, regions ...[]domain.Point) domain.Node {
	return domain.Node{
		ID:   id,
		Kind: domain.KindRoiFilter,
		Config: domain.RoiFilterConfig{
			Mode:    mode,
			Regions: regions,
		},
	}
}

// AlertNode builds an alert node with no window and no cooldown: any
// upstream signal triggers.
func AlertNode(id string) domain.Node {
	return domain.Node{
		ID:     id,
		Kind:   domain.KindAlert,
		Config: domain.AlertConfig{Message: "test alert"},
	}
}

// RecordNode builds a record node.
func RecordNode(id string) domain.Node {
	return domain.Node{
		ID:   id,
		Kind: domain.KindRecord,
		Config: domain.RecordConfig{
			DurationSeconds: 30,
			Label:           "test recording",
		},
	}
}

// E builds an edge with no source port.
func E(source, target string) domain.Edge {
	return domain.Edge{Source: source, Target: target}
}

// PE builds an edge leaving a named source port.
func PE(source, port, target string) domain.Edge {
	return domain.Edge{Source: source, Target: target, SourcePort: port}
}

// LeftQuad returns the left half of the normalized frame as a polygon,
// for ROI filter fixtures.
func LeftQuad() []domain.Point {
	return []domain.Point{
		{X: 0, Y: 0},
		{X: 0.5, Y: 0},
		{X: 0.5, Y: 1},
		{X: 0, Y: 1},
	}
}

// LinearGraph returns the canonical four-node pipeline:
//
//	source -> detect -> gate(yes) -> alarm
//
// The condition gate passes when at least one detection arrives.
func LinearGraph() domain.Graph {
	return domain.Graph{
		Nodes: []domain.Node{
			VideoSourceNode("source", "camera-entrance"),
			AlgorithmNode("detect", "person-v2"),
			ConditionNode("gate", domain.CompareAtLeast, 1),
			AlertNode("alarm"),
		},
		Edges: []domain.Edge{
			E("source", "detect"),
			E("detect", "gate"),
			PE("gate", domain.PortYes, "alarm"),
		},
	}
}

// BranchGraph returns a graph whose condition routes to an alert on the
// yes port and a recording on the no port:
//
//	source -> detect -> gate --yes--> alarm
//	                         --no---> archive
func BranchGraph() domain.Graph {
	return domain.Graph{
		Nodes: []domain.Node{
			VideoSourceNode("source", "camera-entrance"),
			AlgorithmNode("detect", "person-v2"),
			ConditionNode("gate", domain.CompareAtLeast, 1),
			AlertNode("alarm"),
			RecordNode("archive"),
		},
		Edges: []domain.Edge{
			E("source", "detect"),
			E("detect", "gate"),
			PE("gate", domain.PortYes, "alarm"),
			PE("gate", domain.PortNo, "archive"),
		},
	}
}
