package deadline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/gin-contest/internal/apperr"
)

func TestIsClosed(t *testing.T) {
	dl := time.Date(2026, 2, 14, 0, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before", dl.Add(-time.Nanosecond), false},
		{"exactly at deadline", dl, true},
		{"after", dl.Add(time.Second), true},
		{"same instant in another zone", dl.UTC(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClosed(tt.now, dl))
		})
	}
}

func TestGate_EvaluatesClockEachCall(t *testing.T) {
	dl := time.Now().Add(time.Hour)
	now := dl.Add(-time.Minute)
	g := &Gate{Deadline: dl, Now: func() time.Time { return now }}

	assert.NoError(t, g.Check())
	assert.False(t, g.Closed())

	now = dl
	err := g.Check()
	assert.True(t, errors.Is(err, ErrContestClosed))
	assert.Equal(t, apperr.KindContestClosed, apperr.KindOf(err))
	assert.True(t, g.Closed())
}
