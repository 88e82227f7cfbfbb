package domain

import (
	"fmt"
	"math"
)

// NodeConfig is the kind-specific configuration attached to a node.
// Exactly one concrete config type exists per node kind; the loader
// decodes the editor's raw config map into the matching type and the
// graph validator checks it before any execution.
type NodeConfig interface {
	// Kind returns the node kind this configuration belongs to.
	Kind() NodeKind
}

// CompareOp is the comparison operator a function node applies between
// its computed metric and the configured threshold.
type CompareOp string

// Supported comparison operators for function nodes.
const (
	OpLessThan    CompareOp = "less_than"
	OpGreaterThan CompareOp = "greater_than"
	OpEqual       CompareOp = "equal"
)

// compareEpsilon bounds the tolerance for OpEqual. Metric values come
// from floating-point geometry, so exact equality would be useless.
const compareEpsilon = 1e-9

// Evaluate applies the operator to a computed value and a threshold.
// Unknown operators evaluate false.
func (op CompareOp) Evaluate(value, threshold float64) bool {
	switch op {
	case OpLessThan:
		return value < threshold
	case OpGreaterThan:
		return value > threshold
	case OpEqual:
		return math.Abs(value-threshold) <= compareEpsilon
	}
	return false
}

// CountComparison is the comparison a condition node applies between
// the upstream detection count and its configured target.
type CountComparison string

// Supported condition comparison types.
const (
	CompareAtLeast CountComparison = ">="
	CompareExactly CountComparison = "=="
)

// Evaluate applies the comparison to a detection count and a target.
// Unknown comparison types evaluate false.
func (c CountComparison) Evaluate(count, target int) bool {
	switch c {
	case CompareAtLeast:
		return count >= target
	case CompareExactly:
		return count == target
	}
	return false
}

// MetricName identifies a geometry function computable by a function
// node. Two-box metrics need two upstream detection inputs; the
// frame-relative and absolute variants need exactly one.
type MetricName string

// Supported function node metrics.
const (
	MetricAreaRatio        MetricName = "areaRatio"
	MetricHeightRatio      MetricName = "heightRatio"
	MetricWidthRatio       MetricName = "widthRatio"
	MetricIOU              MetricName = "iou"
	MetricCentroidDistance MetricName = "centroidDistance"
	MetricHeightRatioFrame MetricName = "heightRatioFrame"
	MetricWidthRatioFrame  MetricName = "widthRatioFrame"
	MetricAreaRatioFrame   MetricName = "areaRatioFrame"
	MetricSizeAbsolute     MetricName = "sizeAbsolute"
)

// Arity returns how many upstream detection inputs the metric consumes:
// 2 for box-pair metrics, 1 for frame-relative and absolute metrics,
// and 0 for unknown names.
func (m MetricName) Arity() int {
	switch m {
	case MetricAreaRatio, MetricHeightRatio, MetricWidthRatio,
		MetricIOU, MetricCentroidDistance:
		return 2
	case MetricHeightRatioFrame, MetricWidthRatioFrame,
		MetricAreaRatioFrame, MetricSizeAbsolute:
		return 1
	}
	return 0
}

// ComputePairMetric evaluates a two-box metric. The box-pair ratio
// metrics are symmetric (min over max), so the order of a and b does
// not matter; edge declaration order therefore cannot change results.
func ComputePairMetric(m MetricName, a, b BoundingBox) (float64, error) {
	switch m {
	case MetricAreaRatio:
		return AreaRatio(a, b), nil
	case MetricHeightRatio:
		return HeightRatio(a, b), nil
	case MetricWidthRatio:
		return WidthRatio(a, b), nil
	case MetricIOU:
		return IOU(a, b), nil
	case MetricCentroidDistance:
		return CentroidDistance(a, b), nil
	}
	return 0, fmt.Errorf("metric %q is not a box-pair metric", m)
}

// ComputeFrameMetric evaluates a single-box metric against the frame
// dimensions.
func ComputeFrameMetric(m MetricName, b BoundingBox, frameWidth, frameHeight float64) (float64, error) {
	switch m {
	case MetricHeightRatioFrame:
		return HeightRatioFrame(b, frameHeight), nil
	case MetricWidthRatioFrame:
		return WidthRatioFrame(b, frameWidth), nil
	case MetricAreaRatioFrame:
		return AreaRatioFrame(b, frameWidth, frameHeight), nil
	case MetricSizeAbsolute:
		return SizeAbsolute(b), nil
	}
	return 0, fmt.Errorf("metric %q is not a single-box metric", m)
}

// VideoSourceConfig configures a video source node.
type VideoSourceConfig struct {
	// SourceID identifies the camera or stream to draw the frame from.
	SourceID string `yaml:"source_id" json:"source_id" validate:"required"`
}

// Kind implements NodeConfig.
func (VideoSourceConfig) Kind() NodeKind { return KindVideoSource }

// AlgorithmConfig configures an algorithm node.
type AlgorithmConfig struct {
	// AlgorithmID references a detection algorithm known to the
	// algorithm catalog. Validation fails on unresolvable identifiers.
	AlgorithmID string `yaml:"algorithm_id" json:"algorithm_id" validate:"required"`

	// MinConfidence drops detections below this confidence before they
	// are stored. Zero keeps everything.
	MinConfidence float64 `yaml:"min_confidence,omitempty" json:"min_confidence,omitempty" validate:"gte=0,lte=1"`

	// Classes optionally restricts detections to the named classes.
	// Matching is case-insensitive under Unicode case folding.
	Classes []string `yaml:"classes,omitempty" json:"classes,omitempty"`
}

// Kind implements NodeConfig.
func (AlgorithmConfig) Kind() NodeKind { return KindAlgorithm }

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	// ComparisonType selects how the upstream detection count is
	// compared against TargetCount.
	ComparisonType CountComparison `yaml:"comparison_type" json:"comparison_type" validate:"required,oneof='>=' '=='"`

	// TargetCount is the detection count to compare against.
	TargetCount int `yaml:"target_count" json:"target_count" validate:"gte=0"`
}

// Kind implements NodeConfig.
func (ConditionConfig) Kind() NodeKind { return KindCondition }

// FunctionConfig configures a function node.
type FunctionConfig struct {
	// Metric names the geometry function to compute.
	Metric MetricName `yaml:"metric" json:"metric" validate:"required,oneof=areaRatio heightRatio widthRatio iou centroidDistance heightRatioFrame widthRatioFrame areaRatioFrame sizeAbsolute"`

	// Operator selects the comparison against Threshold.
	Operator CompareOp `yaml:"operator" json:"operator" validate:"required,oneof=less_than greater_than equal"`

	// Threshold is the comparison threshold for the computed metric.
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// Kind implements NodeConfig.
func (FunctionConfig) Kind() NodeKind { return KindFunction }

// RoiMode selects how an ROI filter applies its regions.
type RoiMode string

// Supported ROI filter modes.
const (
	// RoiPreMask drops detections whose representative point falls
	// inside any region, masking areas out before counting.
	RoiPreMask RoiMode = "pre_mask"

	// RoiPostFilter keeps only detections whose representative point
	// falls inside at least one region.
	RoiPostFilter RoiMode = "post_filter"
)

// RoiFilterConfig configures an ROI filter node.
type RoiFilterConfig struct {
	// Mode selects masking or filtering behavior.
	Mode RoiMode `yaml:"mode" json:"mode" validate:"required,oneof=pre_mask post_filter"`

	// Regions holds one or more polygons in normalized [0,1]×[0,1]
	// frame coordinates. Each polygon needs at least three vertices.
	Regions [][]Point `yaml:"regions" json:"regions" validate:"required,min=1,dive,min=3"`
}

// Kind implements NodeConfig.
func (RoiFilterConfig) Kind() NodeKind { return KindRoiFilter }

// WindowMode selects how an alert's rolling trigger window evaluates.
type WindowMode string

// Supported alert trigger-window modes.
const (
	// WindowRatio triggers when the fraction of positive samples in
	// the window reaches the threshold.
	WindowRatio WindowMode = "ratio"

	// WindowCount triggers when the number of positive samples in the
	// window reaches the threshold.
	WindowCount WindowMode = "count"

	// WindowConsecutive triggers when the newest samples form an
	// unbroken positive run of at least the threshold length.
	WindowConsecutive WindowMode = "consecutive"
)

// AlertWindowConfig configures an alert node's rolling trigger window.
// A disabled window gates nothing: a single positive sample triggers.
type AlertWindowConfig struct {
	// Enabled turns the rolling window on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Mode selects the window evaluation strategy.
	Mode WindowMode `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=ratio count consecutive"`

	// Size is the number of samples the window holds.
	Size int `yaml:"size,omitempty" json:"size,omitempty" validate:"omitempty,gte=1"`

	// Threshold is mode-dependent: a fraction in [0,1] for ratio mode,
	// a sample count for count and consecutive modes.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"gte=0"`
}

// AlertConfig configures an alert node.
type AlertConfig struct {
	// Message is the alert text that would be delivered in production.
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// Window optionally gates triggering on a rolling detection window.
	Window *AlertWindowConfig `yaml:"window,omitempty" json:"window,omitempty"`

	// CooldownSeconds suppresses re-triggering for this long after a
	// trigger. Zero disables suppression.
	CooldownSeconds int `yaml:"cooldown_seconds,omitempty" json:"cooldown_seconds,omitempty" validate:"gte=0"`
}

// Kind implements NodeConfig.
func (AlertConfig) Kind() NodeKind { return KindAlert }

// RecordConfig configures a record node.
type RecordConfig struct {
	// DurationSeconds is how long the recording would run.
	DurationSeconds int `yaml:"duration_seconds" json:"duration_seconds" validate:"required,gt=0"`

	// Label tags the recording for later retrieval.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Kind implements NodeConfig.
func (RecordConfig) Kind() NodeKind { return KindRecord }
