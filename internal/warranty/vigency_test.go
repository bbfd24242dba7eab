package warranty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeVigency(t *testing.T) {
	completed := time.Date(2026, time.January, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           time.Time
		wantVigent    bool
		wantRemaining int
	}{
		{"same day", completed.Add(2 * time.Hour), true, 90},
		{"one day later", completed.Add(25 * time.Hour), true, 89},
		{"last minute", completed.AddDate(0, 0, 90).Add(-time.Minute), true, 1},
		{"at expiry", completed.AddDate(0, 0, 90), false, 0},
		{"long after", completed.AddDate(1, 0, 0), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ComputeVigency(completed, 90, tt.now)
			assert.Equal(t, tt.wantVigent, v.Vigent)
			assert.Equal(t, tt.wantRemaining, v.DaysRemaining)
			assert.Equal(t, completed.AddDate(0, 0, 90), v.ExpiresAt)
		})
	}
}
