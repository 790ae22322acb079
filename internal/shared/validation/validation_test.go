package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
)

type sampleCommand struct {
	UserID uint   `json:"user_id" validate:"required"`
	Action string `json:"action" validate:"required,oneof=start stop restart"`
	Email  string `validate:"omitempty,email"`
	Name   string `json:"name" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		cmd      sampleCommand
		contains []string
	}{
		{"valid", sampleCommand{UserID: 1, Action: "stop"}, nil},
		{"missing user", sampleCommand{Action: "stop"}, []string{"user_id is required"}},
		{"bad action", sampleCommand{UserID: 1, Action: "reboot"}, []string{"action must be one of [start stop restart]"}},
		{"field name fallback", sampleCommand{UserID: 1, Action: "stop", Email: "nope"}, []string{"Email must be a valid email address"}},
		{"several failures", sampleCommand{Name: "toolong"}, []string{"user_id is required", "name must be at most 5 characters long"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.cmd)
			if tt.contains == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}
