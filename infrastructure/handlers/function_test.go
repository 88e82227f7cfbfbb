package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
)

func TestNewFunctionHandler(t *testing.T) {
	tests := []struct {
		name      string
		nodeID    string
		config    domain.FunctionConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid iou config",
			nodeID: "overlap",
			config: domain.FunctionConfig{
				Metric:    domain.MetricIOU,
				Operator:  domain.OpGreaterThan,
				Threshold: 0.5,
			},
		},
		{
			name:      "empty node id",
			nodeID:    "",
			config:    domain.FunctionConfig{Metric: domain.MetricIOU, Operator: domain.OpGreaterThan},
			wantError: true,
			errorMsg:  "node id cannot be empty",
		},
		{
			name:      "unknown metric",
			nodeID:    "overlap",
			config:    domain.FunctionConfig{Metric: "bogus", Operator: domain.OpGreaterThan},
			wantError: true,
			errorMsg:  "validation failed",
		},
		{
			name:      "unknown operator",
			nodeID:    "overlap",
			config:    domain.FunctionConfig{Metric: domain.MetricIOU, Operator: "between"},
			wantError: true,
			errorMsg:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewFunctionHandler(tt.nodeID, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, handler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, handler)
				assert.Equal(t, domain.KindFunction, handler.Kind())
			}
		})
	}
}

func TestFunctionHandler_Execute_PairMetrics(t *testing.T) {
	// Two upstream inputs contribute their highest-confidence boxes.
	personBox := det(0, 0, 100, 200, 0.9, "person")
	vehicleBox := det(0, 0, 100, 200, 0.8, "car")

	tests := []struct {
		name      string
		config    domain.FunctionConfig
		a, b      domain.Detection
		wantValue float64
		wantMet   bool
	}{
		{
			name: "identical boxes score full IOU",
			config: domain.FunctionConfig{
				Metric:    domain.MetricIOU,
				Operator:  domain.OpGreaterThan,
				Threshold: 0.99,
			},
			a:         personBox,
			b:         vehicleBox,
			wantValue: 1.0,
			wantMet:   true,
		},
		{
			name: "disjoint boxes score zero IOU",
			config: domain.FunctionConfig{
				Metric:    domain.MetricIOU,
				Operator:  domain.OpLessThan,
				Threshold: 0.1,
			},
			a:         det(0, 0, 10, 10, 0.9, "person"),
			b:         det(500, 500, 600, 600, 0.8, "car"),
			wantValue: 0,
			wantMet:   true,
		},
		{
			name: "height ratio is symmetric",
			config: domain.FunctionConfig{
				Metric:    domain.MetricHeightRatio,
				Operator:  domain.OpGreaterThan,
				Threshold: 0.4,
			},
			a:         det(0, 0, 10, 100, 0.9, "person"),
			b:         det(0, 0, 10, 50, 0.8, "car"),
			wantValue: 0.5,
			wantMet:   true,
		},
		{
			name: "centroid distance",
			config: domain.FunctionConfig{
				Metric:    domain.MetricCentroidDistance,
				Operator:  domain.OpLessThan,
				Threshold: 10,
			},
			a:         det(0, 0, 10, 10, 0.9, "person"),
			b:         det(6, 8, 16, 18, 0.8, "car"),
			wantValue: 10,
			wantMet:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewFunctionHandler("fn", tt.config)
			require.NoError(t, err)

			payload, err := handler.Execute(context.Background(), testState{
				input: frameInput(),
				upstream: []domain.Upstream{
					algorithmUpstream("detect-a", tt.a),
					algorithmUpstream("detect-b", tt.b),
				},
			})
			require.NoError(t, err)

			require.NotNil(t, payload.Function)
			assert.InDelta(t, tt.wantValue, payload.Function.Value, 1e-9)
			assert.Equal(t, tt.wantMet, payload.Function.Met)
			assert.Equal(t, string(tt.config.Metric), payload.Function.Metric)
		})
	}
}

func TestFunctionHandler_Execute_FrameMetrics(t *testing.T) {
	// One upstream input; the 1920x1080 test frame provides the extents.
	tests := []struct {
		name      string
		config    domain.FunctionConfig
		detection domain.Detection
		wantValue float64
	}{
		{
			name: "height ratio against frame",
			config: domain.FunctionConfig{
				Metric:    domain.MetricHeightRatioFrame,
				Operator:  domain.OpGreaterThan,
				Threshold: 0.2,
			},
			detection: det(0, 0, 100, 540, 0.9, "person"),
			wantValue: 0.5,
		},
		{
			name: "width ratio against frame",
			config: domain.FunctionConfig{
				Metric:    domain.MetricWidthRatioFrame,
				Operator:  domain.OpLessThan,
				Threshold: 0.5,
			},
			detection: det(0, 0, 480, 100, 0.9, "person"),
			wantValue: 0.25,
		},
		{
			name: "area ratio against frame",
			config: domain.FunctionConfig{
				Metric:    domain.MetricAreaRatioFrame,
				Operator:  domain.OpGreaterThan,
				Threshold: 0.05,
			},
			detection: det(0, 0, 960, 540, 0.9, "person"),
			wantValue: 0.25,
		},
		{
			name: "absolute size ignores frame extents",
			config: domain.FunctionConfig{
				Metric:    domain.MetricSizeAbsolute,
				Operator:  domain.OpGreaterThan,
				Threshold: 100,
			},
			detection: det(0, 0, 20, 30, 0.9, "person"),
			wantValue: 600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewFunctionHandler("fn", tt.config)
			require.NoError(t, err)

			payload, err := handler.Execute(context.Background(), testState{
				input: frameInput(),
				upstream: []domain.Upstream{
					algorithmUpstream("detect", tt.detection),
				},
			})
			require.NoError(t, err)

			require.NotNil(t, payload.Function)
			assert.InDelta(t, tt.wantValue, payload.Function.Value, 1e-9)
		})
	}
}

func TestFunctionHandler_Execute_PicksHighestConfidenceBox(t *testing.T) {
	handler, err := NewFunctionHandler("fn", domain.FunctionConfig{
		Metric:    domain.MetricSizeAbsolute,
		Operator:  domain.OpGreaterThan,
		Threshold: 0,
	})
	require.NoError(t, err)

	// Three candidates with areas 100, 400 and 10000; the 0.9-confidence
	// box in the middle must win over the larger low-confidence one.
	payload, err := handler.Execute(context.Background(), testState{
		input: frameInput(),
		upstream: []domain.Upstream{
			algorithmUpstream("detect",
				det(0, 0, 10, 10, 0.5, "person"),
				det(0, 0, 20, 20, 0.9, "person"),
				det(0, 0, 100, 100, 0.7, "person"),
			),
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 400.0, payload.Function.Value, 1e-9)
}

func TestFunctionHandler_Execute_Errors(t *testing.T) {
	t.Run("arity mismatch", func(t *testing.T) {
		handler, err := NewFunctionHandler("fn", domain.FunctionConfig{
			Metric:    domain.MetricIOU,
			Operator:  domain.OpGreaterThan,
			Threshold: 0.5,
		})
		require.NoError(t, err)

		_, err = handler.Execute(context.Background(), testState{
			input: frameInput(),
			upstream: []domain.Upstream{
				algorithmUpstream("detect", det(0, 0, 10, 10, 0.9, "person")),
			},
		})
		assert.ErrorIs(t, err, ErrUpstreamArityMismatch)
	})

	t.Run("upstream without detections", func(t *testing.T) {
		handler, err := NewFunctionHandler("fn", domain.FunctionConfig{
			Metric:    domain.MetricIOU,
			Operator:  domain.OpGreaterThan,
			Threshold: 0.5,
		})
		require.NoError(t, err)

		_, err = handler.Execute(context.Background(), testState{
			input: frameInput(),
			upstream: []domain.Upstream{
				algorithmUpstream("detect-a", det(0, 0, 10, 10, 0.9, "person")),
				algorithmUpstream("detect-b"),
			},
		})
		assert.ErrorIs(t, err, ErrNoUpstreamDetections)
	})

	t.Run("frame metric without frame extents", func(t *testing.T) {
		handler, err := NewFunctionHandler("fn", domain.FunctionConfig{
			Metric:    domain.MetricHeightRatioFrame,
			Operator:  domain.OpGreaterThan,
			Threshold: 0.2,
		})
		require.NoError(t, err)

		input := frameInput()
		input.Frame.Width = 0
		input.Frame.Height = 0

		_, err = handler.Execute(context.Background(), testState{
			input: input,
			upstream: []domain.Upstream{
				algorithmUpstream("detect", det(0, 0, 10, 10, 0.9, "person")),
			},
		})
		assert.ErrorIs(t, err, ErrMissingFrameDimensions)
	})

	t.Run("absolute size works without frame extents", func(t *testing.T) {
		handler, err := NewFunctionHandler("fn", domain.FunctionConfig{
			Metric:    domain.MetricSizeAbsolute,
			Operator:  domain.OpGreaterThan,
			Threshold: 50,
		})
		require.NoError(t, err)

		input := frameInput()
		input.Frame.Width = 0
		input.Frame.Height = 0

		payload, err := handler.Execute(context.Background(), testState{
			input: input,
			upstream: []domain.Upstream{
				algorithmUpstream("detect", det(0, 0, 10, 10, 0.9, "person")),
			},
		})
		require.NoError(t, err)
		assert.InDelta(t, 100.0, payload.Function.Value, 1e-9)
		assert.True(t, payload.Function.Met)
	})
}

func TestCreateFunctionHandler(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := CreateFunctionHandler("fn", nil)
		assert.ErrorIs(t, err, domain.ErrMissingConfig)
	})

	t.Run("mismatched config type", func(t *testing.T) {
		_, err := CreateFunctionHandler("fn", domain.AlertConfig{})
		assert.ErrorIs(t, err, domain.ErrConfigKindMismatch)
	})
}
