package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusUploaded, true},
		{StatusUploaded, StatusValidated, true},
		{StatusUploaded, StatusInvalid, true},
		{StatusPending, StatusValidated, false},
		{StatusPending, StatusInvalid, false},
		{StatusValidated, StatusUploaded, false},
		{StatusInvalid, StatusUploaded, false},
		{StatusUploaded, StatusFailed, false},
		// Замена файла возвращает запись в pending из любого статуса.
		{StatusValidated, StatusPending, true},
		{StatusInvalid, StatusPending, true},
		{StatusUploaded, StatusPending, true},
		{StatusFailed, StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusUploaded, StatusValidated, StatusInvalid, StatusFailed} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("archived").IsValid())
	assert.False(t, Status("").IsValid())
}
