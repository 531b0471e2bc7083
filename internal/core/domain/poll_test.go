package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollIsVotable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		isActive bool
		endsAt   time.Time
		want     bool
	}{
		{"active and open", true, now.Add(time.Hour), true},
		{"inactive", false, now.Add(time.Hour), false},
		{"expired", true, now.Add(-time.Hour), false},
		{"inactive and expired", false, now.Add(-time.Hour), false},
		{"ends exactly now", true, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll := &Poll{IsActive: tt.isActive, EndsAt: tt.endsAt}
			assert.Equal(t, tt.want, poll.IsVotable(now))
		})
	}
}

func TestRoleCanCreatePolls(t *testing.T) {
	assert.True(t, RoleAdmin.CanCreatePolls())
	assert.True(t, RoleVendor.CanCreatePolls())
	assert.False(t, RoleUser.CanCreatePolls())
	assert.False(t, Role("other").Valid())
}
