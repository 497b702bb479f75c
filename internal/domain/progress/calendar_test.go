package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReminders_Window(t *testing.T) {
	base := NewState("amy", "", at("2024-01-01T00:00:00"))
	base.StudyPlan = []StudyEvent{{ID: "e1", Date: "2024-01-10", Time: "09:00", Title: "t", Reminder: true}}

	tests := []struct {
		name string
		now  string
		want bool
	}{
		{"two minutes early", "2024-01-10T08:58:00", false},
		{"one minute early", "2024-01-10T08:59:00", true},
		{"on time", "2024-01-10T09:00:00", true},
		{"four minutes late", "2024-01-10T09:04:00", true},
		{"five minutes late", "2024-01-10T09:05:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, fired := CheckReminders(base, at(tt.now), time.UTC)
			assert.Equal(t, tt.want, len(fired) == 1)
			assert.Equal(t, tt.want, next.StudyPlan[0].Notified)
			assert.False(t, base.StudyPlan[0].Notified)
		})
	}
}

func TestCheckReminders_SkipsWithoutReminder(t *testing.T) {
	s := NewState("amy", "", at("2024-01-01T00:00:00"))
	s.StudyPlan = []StudyEvent{
		{ID: "e1", Date: "2024-01-10", Time: "09:00", Title: "t"},
		{ID: "e2", Date: "bad", Time: "09:00", Title: "t", Reminder: true},
	}

	_, fired := CheckReminders(s, at("2024-01-10T09:00:00"), time.UTC)
	assert.Empty(t, fired)
	assert.True(t, HasPendingReminders(s))
}

func TestEventsOn(t *testing.T) {
	s := NewState("amy", "", at("2024-01-01T00:00:00"))
	s, _ = PureAddEvent(s, NewEventInput{Date: "2024-01-10", Time: "14:00", Title: "b"}, "")
	s, _ = PureAddEvent(s, NewEventInput{Date: "2024-01-10", Time: "08:30", Title: "a"}, "")
	s, _ = PureAddEvent(s, NewEventInput{Date: "2024-01-11", Time: "07:00", Title: "c"}, "")

	events := EventsOn(s, "2024-01-10")
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Title)
	assert.Equal(t, "b", events[1].Title)
}

func TestEventID_UnmarshalJSON(t *testing.T) {
	var ids []EventID
	require.NoError(t, json.Unmarshal([]byte(`["abc", 42, null]`), &ids))
	assert.Equal(t, []EventID{"abc", "42", ""}, ids)

	var id EventID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}
