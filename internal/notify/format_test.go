package notify

import (
	"testing"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "150000 IDR", FormatPrice(15000000, "IDR"))
	assert.Equal(t, "12.50 USD", FormatPrice(1250, "USD"))
	assert.Equal(t, "0 IDR", FormatPrice(0, "IDR"))
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "10.03.2026 15:30", FormatSlot("2026-03-10", "15:30"))
	assert.Equal(t, "tomorrow 15:30", FormatSlot("tomorrow", "15:30"))
}

func TestSessionTypeName(t *testing.T) {
	assert.Equal(t, "видеозвонок", SessionTypeName(model.SessionTypeVideo))
	assert.Equal(t, "webinar", SessionTypeName(model.SessionType("webinar")))
}

func TestMessages(t *testing.T) {
	rating := 4
	s := &model.Session{
		StudentName: "Anna",
		SessionDate: "2026-03-10",
		SessionTime: "15:30",
		Price:       15000000,
		Rating:      &rating,
	}

	assert.Contains(t, SessionBooked(s, "IDR"), "150000 IDR")
	assert.Contains(t, SessionRescheduled(s), "10.03.2026 15:30")
	assert.Contains(t, SessionRated(s), "4/5")

	assert.Contains(t, PaymentReceived(s), "подтверждено")
	s.Status = model.SessionStatusRescheduled
	assert.Contains(t, PaymentReceived(s), "ждёт подтверждения")
}

func TestPluralize(t *testing.T) {
	tests := map[int]string{
		0:   "заявок",
		1:   "заявка",
		2:   "заявки",
		5:   "заявок",
		11:  "заявок",
		14:  "заявок",
		21:  "заявка",
		22:  "заявки",
		111: "заявок",
	}
	for count, want := range tests {
		assert.Equal(t, want, Pluralize(count, "заявка", "заявки", "заявок"), count)
	}
}
