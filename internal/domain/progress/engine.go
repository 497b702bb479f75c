package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Options настраивает движок.
type Options struct {
	// Location - часовой пояс для дат серии и напоминаний.
	Location *time.Location

	// SpeedsterThreshold - квиз быстрее этого времени даёт speedster.
	SpeedsterThreshold time.Duration

	// MaxFinalAttempts ограничивает число попыток финального теста (0 = без ограничений).
	MaxFinalAttempts int

	// WeakTopicThreshold - темы с оценкой ниже порога считаются слабыми
	// после квиза (0 = пересчёт выключен).
	WeakTopicThreshold float64

	// RecomputeFor решает для студента, пересчитывать ли слабые темы.
	// nil = для всех.
	RecomputeFor func(username string) bool
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{
		Location:           time.UTC,
		SpeedsterThreshold: DefaultSpeedsterThreshold,
		WeakTopicThreshold: DefaultWeakTopicThreshold,
	}
}

// Result - итог одного перехода.
type Result struct {
	// State - новое состояние (всегда заполнено, даже если ничего не изменилось).
	State State

	// Notifications - уведомления, появившиеся в этом переходе.
	Notifications []notification.Notification

	// Hints - секции интерфейса, которые устарели.
	Hints Hints

	// Messages - короткие сообщения для студента (тосты).
	Messages []string

	// Changed - изменились сохраняемые поля; нужен ровно один Save.
	Changed bool

	// Unlocked - достижения, полученные в этом переходе.
	Unlocked []AchievementID

	Quiz  *QuizSummary
	Final *FinalResult
	Event *StudyEvent
}

// Engine применяет события к состоянию прогресса.
type Engine struct {
	bank  quiz.Bank
	clock timeutil.Clock
	opts  Options
	log   *logger.Logger
}

// NewEngine создаёт движок.
func NewEngine(bank quiz.Bank, clock timeutil.Clock, opts Options, log *logger.Logger) *Engine {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SpeedsterThreshold <= 0 {
		opts.SpeedsterThreshold = DefaultSpeedsterThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	if bank == nil {
		bank = quiz.NewMapBank(nil, nil)
	}
	return &Engine{
		bank:  bank,
		clock: clock,
		opts:  opts,
		log:   log.With(logger.Component("progress_engine")),
	}
}

// Bank возвращает банк вопросов движка.
func (e *Engine) Bank() quiz.Bank {
	return e.bank
}

// Location возвращает часовой пояс движка.
func (e *Engine) Location() *time.Location {
	return e.opts.Location
}

// Now возвращает текущее время по часам движка.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

func (e *Engine) recomputeWeakTopics(username string) bool {
	if e.opts.WeakTopicThreshold <= 0 {
		return false
	}
	return e.opts.RecomputeFor == nil || e.opts.RecomputeFor(username)
}

// Apply применяет событие к копии состояния. Входное состояние не изменяется.
// Ошибка валидации возвращает исходное состояние без изменений.
func (e *Engine) Apply(s State, ev Event) (Result, error) {
	if err := ValidateEvent(ev); err != nil {
		return Result{State: s}, err
	}

	now := e.clock.Now()
	next := s.Clone()
	res := Result{}
	in := achievementInput{speedsterThreshold: e.opts.SpeedsterThreshold}

	switch ev := ev.(type) {
	case LoginTick:
		res.Changed = advanceLogin(&next, now, e.opts.Location)
		if res.Changed {
			res.Hints = res.Hints.with(SectionDashboard, SectionGamification)
		}

	case StartQuiz:
		started := now
		next.QuizStartedAt = &started
		res.Hints = res.Hints.with(SectionQuiz)

	case QuizSubmit:
		// без StartQuiz время неизвестно и speedster не проверяется
		var elapsed time.Duration
		timed := next.QuizStartedAt != nil
		if timed {
			elapsed = max(now.Sub(*next.QuizStartedAt), 0)
		}
		summary := scoreQuiz(&next, e.bank, ev.Answers, elapsed)
		res.Quiz = &summary
		if summary.Total > 0 {
			res.Changed = true
			next.QuizStartedAt = nil
			if timed {
				in.quizElapsed = &elapsed
			}
			if e.recomputeWeakTopics(next.Username) {
				recomputeWeakTopics(&next, e.opts.WeakTopicThreshold)
			}
			res.Hints = res.Hints.with(SectionQuiz, SectionSummary, SectionDashboard, SectionLeaderboard)
		}

	case FinalSubmit:
		if e.opts.MaxFinalAttempts > 0 && len(next.FinalAttempts) >= e.opts.MaxFinalAttempts {
			return Result{State: s}, shared.ErrFinalAttemptsUsed
		}
		result := scoreFinal(&next, e.bank, ev.Refs, ev.Answers, now)
		for _, ref := range result.Missing {
			e.log.Warn("final exam question missing from bank",
				logger.Username(next.Username),
				logger.QuestionRef(ref.Topic, ref.Index),
			)
		}
		res.Final = &result
		res.Changed = true
		res.Hints = res.Hints.with(SectionFinal, SectionSummary, SectionDashboard)

	case StartTimer:
		if next.ActiveTimer == nil {
			t := StartSession(now)
			next.ActiveTimer = &t
			res.Hints = res.Hints.with(SectionTimer)
		}

	case StopTimer:
		if next.ActiveTimer != nil {
			elapsed := stopSession(&next, *next.ActiveTimer, now)
			res.Changed = elapsed >= time.Second
			res.Messages = append(res.Messages, fmt.Sprintf("Study session saved: %d minutes", int(elapsed/time.Minute)))
			res.Hints = res.Hints.with(SectionTimer, SectionSummary)
		}

	case AddNote:
		addNote(&next, ev.Topic, ev.Content, now)
		res.Changed = true
		res.Messages = append(res.Messages, "Note saved!")
		res.Hints = res.Hints.with(SectionNotes)

	case DeleteNote:
		res.Changed = deleteNote(&next, ev.Topic, ev.Index)
		if res.Changed {
			res.Hints = res.Hints.with(SectionNotes)
		}

	case AddEvent:
		added := addEvent(&next, NewEventInput{
			Date:     ev.Date,
			Time:     ev.Time,
			Title:    ev.Title,
			Reminder: ev.Reminder,
		}, "")
		res.Event = &added
		res.Changed = true
		res.Hints = res.Hints.with(SectionCalendar)

	case DeleteEvent:
		res.Changed = deleteEvent(&next, ev.ID)
		if res.Changed {
			res.Hints = res.Hints.with(SectionCalendar)
		}

	case ReminderTick:
		for _, fired := range checkReminders(&next, now, e.opts.Location) {
			n, err := reminderNotification(next.Username, fired, now)
			if err != nil {
				e.log.Error("build reminder notification", logger.EventID(string(fired.ID)), logger.Err(err))
				continue
			}
			res.Notifications = append(res.Notifications, n)
			res.Changed = true
		}
		if res.Changed {
			res.Hints = res.Hints.with(SectionCalendar, SectionNotifications)
		}

	case ToggleBookmark:
		topic := strings.TrimSpace(ev.Topic)
		if toggleBookmark(&next, topic) {
			res.Messages = append(res.Messages, "Bookmarked "+topic)
		} else {
			res.Messages = append(res.Messages, "Removed bookmark from "+topic)
		}
		res.Changed = true
		res.Hints = res.Hints.with(SectionModules, SectionProfile)

	case MarkModuleComplete:
		if markModuleComplete(&next, ev.Topic) {
			res.Changed = true
			advanceLogin(&next, now, e.opts.Location)
			res.Hints = res.Hints.with(SectionModules, SectionDashboard, SectionLeaderboard)
		}

	default:
		return Result{State: s}, shared.ErrUnknownEvent
	}

	res.Unlocked = checkAchievements(&next, in)
	for _, id := range res.Unlocked {
		n, err := achievementNotification(next.Username, id, now)
		if err != nil {
			e.log.Error("build achievement notification", logger.Achievement(string(id)), logger.Err(err))
			continue
		}
		res.Notifications = append(res.Notifications, n)
	}
	if len(res.Unlocked) > 0 {
		res.Changed = true
		res.Hints = res.Hints.with(SectionGamification, SectionNotifications)
	}

	if res.Changed {
		next.UpdatedAt = now.UTC()
	}

	e.log.Debug("event applied",
		logger.Username(next.Username),
		logger.EventKind(ev.Kind().String()),
		logger.Bool("changed", res.Changed),
		logger.Int("notifications", len(res.Notifications)),
	)

	res.State = next
	return res, nil
}
