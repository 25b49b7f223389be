package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-b", "spaces", "-x", "other"},
			allowed: []string{"-b"},
			want:    []string{"-b", "spaces"},
		},
		{
			name:    "equals form",
			args:    []string{"--bucket=spaces", "--region=eu"},
			allowed: []string{"--bucket"},
			want:    []string{"--bucket=spaces"},
		},
		{
			name:    "flag without value",
			args:    []string{"-manual", "-b", "spaces"},
			allowed: []string{"-manual"},
			want:    []string{"-manual"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "1"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}
