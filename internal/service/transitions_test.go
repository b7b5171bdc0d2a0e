package service

import (
	"errors"
	"testing"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSessionStatus(t *testing.T) {
	tests := []struct {
		from model.SessionStatus
		ev   SessionEvent
		want model.SessionStatus
	}{
		{model.SessionStatusPending, EvPaymentRecorded, model.SessionStatusConfirmed},
		{model.SessionStatusRescheduled, EvPaymentRecorded, model.SessionStatusRescheduled},
		{model.SessionStatusConfirmed, EvRescheduled, model.SessionStatusRescheduled},
		{model.SessionStatusConfirmed, EvCompleted, model.SessionStatusCompleted},
		{model.SessionStatusAccepted, EvCompleted, model.SessionStatusCompleted},
		{model.SessionStatusRescheduled, EvCancelled, model.SessionStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := nextSessionStatus(tt.from, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	events := []SessionEvent{EvPaymentRecorded, EvRescheduled, EvRescheduleAcknowledged, EvCompleted, EvCancelled}

	for _, from := range []model.SessionStatus{model.SessionStatusCompleted, model.SessionStatusCancelled} {
		for _, ev := range events {
			_, err := nextSessionStatus(from, ev)
			assert.True(t, errors.Is(err, ErrInvalidOperation), "%s/%s", from, ev)
		}
	}
}

func TestPendingCannotComplete(t *testing.T) {
	_, err := nextSessionStatus(model.SessionStatusPending, EvCompleted)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}
