package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
)

func TestNewRecordHandler(t *testing.T) {
	tests := []struct {
		name      string
		nodeID    string
		config    domain.RecordConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid config",
			nodeID: "archive",
			config: domain.RecordConfig{DurationSeconds: 30, Label: "intrusion"},
		},
		{
			name:   "label is optional",
			nodeID: "archive",
			config: domain.RecordConfig{DurationSeconds: 10},
		},
		{
			name:      "empty node id",
			nodeID:    "",
			config:    domain.RecordConfig{DurationSeconds: 30},
			wantError: true,
			errorMsg:  "node id cannot be empty",
		},
		{
			name:      "missing duration",
			nodeID:    "archive",
			config:    domain.RecordConfig{Label: "intrusion"},
			wantError: true,
			errorMsg:  "validation failed",
		},
		{
			name:      "negative duration",
			nodeID:    "archive",
			config:    domain.RecordConfig{DurationSeconds: -5},
			wantError: true,
			errorMsg:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewRecordHandler(tt.nodeID, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, handler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, handler)
				assert.Equal(t, domain.KindRecord, handler.Kind())
				assert.Equal(t, tt.nodeID, handler.Name())
			}
		})
	}
}

func TestRecordHandler_Execute(t *testing.T) {
	handler, err := NewRecordHandler("archive", domain.RecordConfig{
		DurationSeconds: 45,
		Label:           "perimeter breach",
	})
	require.NoError(t, err)

	// Reaching the node means the branch was taken, so the intent is
	// unconditional regardless of upstream payloads.
	tests := []struct {
		name     string
		upstream []domain.Upstream
	}{
		{name: "no upstream inputs", upstream: nil},
		{
			name:     "empty algorithm upstream",
			upstream: []domain.Upstream{algorithmUpstream("detect")},
		},
		{
			name: "detections upstream",
			upstream: []domain.Upstream{
				algorithmUpstream("detect", det(0, 0, 10, 10, 0.9, "person")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := handler.Execute(context.Background(), testState{
				input:    frameInput(),
				upstream: tt.upstream,
			})
			require.NoError(t, err)

			require.NotNil(t, payload.Recording)
			assert.True(t, payload.Recording.Requested)
			assert.Equal(t, "perimeter breach", payload.Recording.Label)
			assert.Equal(t, 45, payload.Recording.DurationSeconds)
		})
	}
}

func TestCreateRecordHandler(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := CreateRecordHandler("archive", nil)
		assert.ErrorIs(t, err, domain.ErrMissingConfig)
	})

	t.Run("mismatched config type", func(t *testing.T) {
		_, err := CreateRecordHandler("archive", domain.VideoSourceConfig{})
		assert.ErrorIs(t, err, domain.ErrConfigKindMismatch)
	})

	t.Run("valid config", func(t *testing.T) {
		handler, err := CreateRecordHandler("archive", domain.RecordConfig{DurationSeconds: 30})
		require.NoError(t, err)
		assert.Equal(t, domain.KindRecord, handler.Kind())
	})
}
