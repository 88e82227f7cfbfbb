package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
)

func TestNewConditionHandler(t *testing.T) {
	tests := []struct {
		name      string
		nodeID    string
		config    domain.ConditionConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:   "at least comparison",
			nodeID: "gate",
			config: domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 1},
		},
		{
			name:   "exact comparison with zero target",
			nodeID: "gate",
			config: domain.ConditionConfig{ComparisonType: domain.CompareExactly, TargetCount: 0},
		},
		{
			name:      "empty node id",
			nodeID:    "",
			config:    domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 1},
			wantError: true,
			errorMsg:  "node id cannot be empty",
		},
		{
			name:      "missing comparison type",
			nodeID:    "gate",
			config:    domain.ConditionConfig{TargetCount: 1},
			wantError: true,
			errorMsg:  "validation failed",
		},
		{
			name:      "negative target",
			nodeID:    "gate",
			config:    domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: -1},
			wantError: true,
			errorMsg:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewConditionHandler(tt.nodeID, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, handler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, handler)
				assert.Equal(t, domain.KindCondition, handler.Kind())
			}
		})
	}
}

func TestConditionHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		config    domain.ConditionConfig
		upstream  []domain.Upstream
		wantMet   bool
		wantPort  string
		wantCount int
	}{
		{
			name:   "at least one met",
			config: domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 1},
			upstream: []domain.Upstream{
				algorithmUpstream("detect",
					det(0, 0, 10, 10, 0.9, "person"),
					det(5, 5, 15, 15, 0.8, "person"),
				),
			},
			wantMet:   true,
			wantPort:  domain.PortYes,
			wantCount: 2,
		},
		{
			name:   "at least one not met",
			config: domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 1},
			upstream: []domain.Upstream{
				algorithmUpstream("detect"),
			},
			wantMet:   false,
			wantPort:  domain.PortNo,
			wantCount: 0,
		},
		{
			name:   "exactly two met",
			config: domain.ConditionConfig{ComparisonType: domain.CompareExactly, TargetCount: 2},
			upstream: []domain.Upstream{
				algorithmUpstream("detect",
					det(0, 0, 10, 10, 0.9, "person"),
					det(5, 5, 15, 15, 0.8, "person"),
				),
			},
			wantMet:   true,
			wantPort:  domain.PortYes,
			wantCount: 2,
		},
		{
			name:   "exactly two not met with three",
			config: domain.ConditionConfig{ComparisonType: domain.CompareExactly, TargetCount: 2},
			upstream: []domain.Upstream{
				algorithmUpstream("detect",
					det(0, 0, 10, 10, 0.9, "person"),
					det(5, 5, 15, 15, 0.8, "person"),
					det(2, 2, 8, 8, 0.7, "person"),
				),
			},
			wantMet:   false,
			wantPort:  domain.PortNo,
			wantCount: 3,
		},
		{
			name:      "no upstream evaluates against zero",
			config:    domain.ConditionConfig{ComparisonType: domain.CompareExactly, TargetCount: 0},
			upstream:  nil,
			wantMet:   true,
			wantPort:  domain.PortYes,
			wantCount: 0,
		},
		{
			name:   "counts sum across multiple algorithm inputs",
			config: domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 3},
			upstream: []domain.Upstream{
				algorithmUpstream("detect-a",
					det(0, 0, 10, 10, 0.9, "person"),
					det(5, 5, 15, 15, 0.8, "person"),
				),
				algorithmUpstream("detect-b",
					det(2, 2, 8, 8, 0.7, "car"),
				),
			},
			wantMet:   true,
			wantPort:  domain.PortYes,
			wantCount: 3,
		},
		{
			name:   "chained condition forwards its observed count",
			config: domain.ConditionConfig{ComparisonType: domain.CompareAtLeast, TargetCount: 2},
			upstream: []domain.Upstream{
				{
					NodeID: "first-gate",
					Kind:   domain.KindCondition,
					Port:   domain.PortYes,
					Payload: domain.Payload{
						DetectionCount: 2,
						Condition:      &domain.ConditionOutcome{Met: true, TakenPort: domain.PortYes},
					},
				},
			},
			wantMet:   true,
			wantPort:  domain.PortYes,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewConditionHandler("gate", tt.config)
			require.NoError(t, err)

			payload, err := handler.Execute(context.Background(), testState{
				input:    frameInput(),
				upstream: tt.upstream,
			})
			require.NoError(t, err)

			require.NotNil(t, payload.Condition)
			assert.Equal(t, tt.wantMet, payload.Condition.Met)
			assert.Equal(t, tt.wantPort, payload.Condition.TakenPort)
			assert.Equal(t, tt.wantCount, payload.DetectionCount, "observed count is forwarded")
			assert.NotEmpty(t, payload.Condition.Detail)
		})
	}
}

func TestCreateConditionHandler(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := CreateConditionHandler("gate", nil)
		assert.ErrorIs(t, err, domain.ErrMissingConfig)
	})

	t.Run("mismatched config type", func(t *testing.T) {
		_, err := CreateConditionHandler("gate", domain.RecordConfig{DurationSeconds: 5})
		assert.ErrorIs(t, err, domain.ErrConfigKindMismatch)
	})
}
