package progress

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS
// Всё, что слой представления передаёт в движок.
// ══════════════════════════════════════════════════════════════════════════════

// EventKind - тип события.
type EventKind string

const (
	KindLoginTick          EventKind = "login_tick"
	KindStartQuiz          EventKind = "start_quiz"
	KindQuizSubmit         EventKind = "quiz_submit"
	KindFinalSubmit        EventKind = "final_submit"
	KindStartTimer         EventKind = "start_timer"
	KindStopTimer          EventKind = "stop_timer"
	KindAddNote            EventKind = "add_note"
	KindDeleteNote         EventKind = "delete_note"
	KindAddEvent           EventKind = "add_event"
	KindDeleteEvent        EventKind = "delete_event"
	KindReminderTick       EventKind = "reminder_tick"
	KindToggleBookmark     EventKind = "toggle_bookmark"
	KindMarkModuleComplete EventKind = "mark_module_complete"
)

// String возвращает имя типа.
func (k EventKind) String() string {
	return string(k)
}

// Event - событие для Engine.Apply.
type Event interface {
	Kind() EventKind
}

// LoginTick - студент открыл приложение (засчитывает день серии).
type LoginTick struct{}

// StartQuiz - квиз показан студенту; от этого момента считается время квиза.
type StartQuiz struct{}

// QuizSubmit - отправка квиза по слабым темам. Время квиза движок считает
// сам от последнего StartQuiz.
type QuizSubmit struct {
	Answers Answers `validate:"min=1"`
}

// FinalSubmit - отправка финального теста.
type FinalSubmit struct {
	Refs    []quiz.FinalRef
	Answers Answers
}

// StartTimer - запуск учебного таймера.
type StartTimer struct{}

// StopTimer - остановка учебного таймера.
type StopTimer struct{}

// AddNote - новая заметка.
type AddNote struct {
	Topic   string `validate:"notblank"`
	Content string `validate:"notblank"`
}

// DeleteNote - удаление заметки по индексу.
type DeleteNote struct {
	Topic string `validate:"notblank"`
	Index int
}

// AddEvent - новое событие учебного плана.
type AddEvent struct {
	Title    string `validate:"notblank"`
	Time     string `validate:"notblank,clock"`
	Date     string `validate:"isodate"`
	Reminder bool
}

// DeleteEvent - удаление события плана.
type DeleteEvent struct {
	ID EventID
}

// ReminderTick - периодическая проверка напоминаний.
type ReminderTick struct{}

// ToggleBookmark - переключение закладки темы.
type ToggleBookmark struct {
	Topic string `validate:"notblank"`
}

// MarkModuleComplete - модуль пройден.
type MarkModuleComplete struct {
	Topic string `validate:"notblank"`
}

func (LoginTick) Kind() EventKind          { return KindLoginTick }
func (StartQuiz) Kind() EventKind          { return KindStartQuiz }
func (QuizSubmit) Kind() EventKind         { return KindQuizSubmit }
func (FinalSubmit) Kind() EventKind        { return KindFinalSubmit }
func (StartTimer) Kind() EventKind         { return KindStartTimer }
func (StopTimer) Kind() EventKind          { return KindStopTimer }
func (AddNote) Kind() EventKind            { return KindAddNote }
func (DeleteNote) Kind() EventKind         { return KindDeleteNote }
func (AddEvent) Kind() EventKind           { return KindAddEvent }
func (DeleteEvent) Kind() EventKind        { return KindDeleteEvent }
func (ReminderTick) Kind() EventKind       { return KindReminderTick }
func (ToggleBookmark) Kind() EventKind     { return KindToggleBookmark }
func (MarkModuleComplete) Kind() EventKind { return KindMarkModuleComplete }

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func eventValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := timeutil.ParseDate(fl.Field().String(), time.UTC)
			return err == nil
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, _, err := timeutil.ParseClock(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// fieldErrors сопоставляет поле события с ошибкой для студента.
var fieldErrors = map[string]*shared.DomainError{
	"QuizSubmit.Answers":       shared.ErrEmptyQuizSubmission,
	"AddNote.Topic":            shared.ErrEmptyNoteTopic,
	"AddNote.Content":          shared.ErrEmptyNoteContent,
	"DeleteNote.Topic":         shared.ErrEmptyTopic,
	"AddEvent.Title":           shared.ErrEmptyEventTitle,
	"AddEvent.Time":            shared.ErrEmptyEventTime,
	"AddEvent.Date":            shared.ErrInvalidEventDate,
	"ToggleBookmark.Topic":     shared.ErrEmptyTopic,
	"MarkModuleComplete.Topic": shared.ErrEmptyTopic,
}

// ValidateEvent проверяет событие и возвращает ошибку валидации с сообщением.
func ValidateEvent(ev Event) error {
	if ev == nil {
		return shared.ErrUnknownEvent
	}

	err := eventValidator().Struct(ev)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.WrapError("progress", ev.Kind().String(), shared.ErrInvalidInput, "invalid event", err)
	}

	first := verrs[0]
	known, ok := fieldErrors[first.StructNamespace()]
	if !ok {
		return shared.Validation("progress", ev.Kind().String(), "Invalid "+strings.ToLower(first.Field())+".", first)
	}
	if first.Tag() == "clock" {
		known = shared.ErrInvalidEventDate
	}
	return known
}
