package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY PLAN / REMINDERS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ReminderLead - напоминание срабатывает, когда до события осталось не больше минуты.
	ReminderLead = time.Minute

	// ReminderGrace - напоминание ещё срабатывает, если событие прошло меньше 5 минут назад.
	ReminderGrace = 5 * time.Minute
)

// EventID - идентификатор события плана.
type EventID string

// NewEventID генерирует уникальный идентификатор события.
func NewEventID() EventID {
	return EventID(uuid.NewString())
}

// UnmarshalJSON принимает как строки, так и числовые идентификаторы старых документов.
func (id *EventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("progress: event id: %w", err)
	}
	*id = EventID(n.String())
	return nil
}

// NewEventInput - данные нового события плана.
type NewEventInput struct {
	Date     string
	Time     string
	Title    string
	Reminder bool
}

// PureAddEvent добавляет событие с новым идентификатором и notified = false.
// Проверка полей выполняется движком до вызова.
func PureAddEvent(s State, in NewEventInput, id EventID) (State, StudyEvent) {
	c := s.Clone()
	ev := addEvent(&c, in, id)
	return c, ev
}

func addEvent(s *State, in NewEventInput, id EventID) StudyEvent {
	if id == "" {
		id = NewEventID()
	}
	ev := StudyEvent{
		ID:       id,
		Date:     strings.TrimSpace(in.Date),
		Time:     strings.TrimSpace(in.Time),
		Title:    strings.TrimSpace(in.Title),
		Reminder: in.Reminder,
		Notified: false,
	}
	s.StudyPlan = append(s.StudyPlan, ev)
	return ev
}

// PureDeleteEvent удаляет событие; отсутствующий id - не ошибка.
func PureDeleteEvent(s State, id EventID) (State, bool) {
	c := s.Clone()
	return c, deleteEvent(&c, id)
}

func deleteEvent(s *State, id EventID) bool {
	for i, ev := range s.StudyPlan {
		if ev.ID == id {
			s.StudyPlan = append(s.StudyPlan[:i], s.StudyPlan[i+1:]...)
			return true
		}
	}
	return false
}

// CheckReminders находит события, для которых пора напомнить, и помечает их.
// Окно: -5 мин < (событие - now) ≤ 1 мин. Флаг notified проверяется до изменения,
// поэтому повторный вызов с тем же now ничего не делает.
func CheckReminders(s State, now time.Time, loc *time.Location) (State, []StudyEvent) {
	c := s.Clone()
	fired := checkReminders(&c, now, loc)
	return c, fired
}

func checkReminders(s *State, now time.Time, loc *time.Location) []StudyEvent {
	var fired []StudyEvent
	for i := range s.StudyPlan {
		ev := &s.StudyPlan[i]
		if !ev.Reminder || ev.Notified {
			continue
		}

		at, err := timeutil.ParseDateTime(ev.Date, ev.Time, loc)
		if err != nil {
			continue
		}

		delta := at.Sub(now)
		if delta <= ReminderLead && delta > -ReminderGrace {
			ev.Notified = true
			fired = append(fired, *ev)
		}
	}
	return fired
}

// reminderNotification формирует уведомление о занятии.
func reminderNotification(username string, ev StudyEvent, at time.Time) (notification.Notification, error) {
	return notification.New(notification.NewParams{
		Type:      notification.TypeReminder,
		Recipient: username,
		Title:     "Study Reminder",
		Message:   fmt.Sprintf("It's time to study: %s at %s", ev.Title, ev.Time),
		At:        at,
	})
}

// EventsOn возвращает события дня, отсортированные по времени.
func EventsOn(s State, date string) []StudyEvent {
	var out []StudyEvent
	for _, ev := range s.StudyPlan {
		if ev.Date == date {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// HasPendingReminders сообщает, есть ли несработавшие напоминания.
func HasPendingReminders(s State) bool {
	for _, ev := range s.StudyPlan {
		if ev.Reminder && !ev.Notified {
			return true
		}
	}
	return false
}
