// Package progress содержит движок прогресса студента LearnSphere:
// серии входов, достижения, оценку квизов и финального теста, учёт учебного
// времени, учебный план с напоминаниями, заметки и закладки.
//
// Все переходы чистые: на вход подаётся State, на выходе новый State,
// входное значение никогда не изменяется.
package progress

import (
	"slices"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultWeakTopic - слабая тема нового студента.
const DefaultWeakTopic = "Algebra"

// NoteEntry - одна заметка по теме.
type NoteEntry struct {
	// Content - текст заметки.
	Content string `json:"content"`

	// Date - время создания.
	Date time.Time `json:"date"`
}

// StudyEvent - запись учебного плана (календаря).
type StudyEvent struct {
	// ID - уникальный идентификатор события.
	ID EventID `json:"id"`

	// Date - дата в формате YYYY-MM-DD.
	Date string `json:"date"`

	// Time - время в формате HH:MM.
	Time string `json:"time"`

	// Title - название занятия.
	Title string `json:"title"`

	// Reminder - нужно ли напоминание.
	Reminder bool `json:"reminder"`

	// Notified - напоминание уже сработало (переходит false→true один раз).
	Notified bool `json:"notified"`
}

// FinalAttempt - одна попытка финального теста.
type FinalAttempt struct {
	Score       int       `json:"score"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Skipped     int       `json:"skipped"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Timer - активная учебная сессия. Хранится только в памяти.
type Timer struct {
	StartedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// State - документ прогресса одного студента.
type State struct {
	// Username, Name - идентичность, не меняются после создания.
	Username string `json:"username"`
	Name     string `json:"name"`

	// WeakTopics - темы для повторения; определяют состав квиза.
	WeakTopics []string `json:"weak_topics"`

	// QuizScores - тема → доля правильных ответов в [0,1], последняя оценка побеждает.
	QuizScores map[string]float64 `json:"quiz_scores"`

	// CompletedModules - пройденные темы, только растёт.
	CompletedModules []string `json:"completed_modules"`

	// FinalTestScore - процент финального теста (nil = не сдавался).
	FinalTestScore *int `json:"final_test_score"`

	// FinalAttempts - история попыток финального теста.
	FinalAttempts []FinalAttempt `json:"final_attempts"`

	// Streak - серия дней подряд.
	Streak int `json:"streak"`

	// LastLoginDate - дата последнего входа YYYY-MM-DD ("" = входов не было).
	LastLoginDate string `json:"lastLoginDate"`

	// Achievements - полученные достижения, только растёт.
	Achievements []AchievementID `json:"achievements"`

	// StudyTime - учебное время в секундах.
	StudyTime int64 `json:"study_time"`

	// Notes - тема → заметки; пустой список не хранится.
	Notes map[string][]NoteEntry `json:"notes"`

	// Bookmarks - темы в закладках.
	Bookmarks []string `json:"bookmarks"`

	// StudyPlan - учебный план.
	StudyPlan []StudyEvent `json:"study_plan"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ActiveTimer - активная учебная сессия; не сохраняется,
	// поэтому падение между стартом и стопом теряет время сессии.
	ActiveTimer *Timer `json:"-"`

	// QuizStartedAt - когда показан текущий квиз; только в памяти.
	QuizStartedAt *time.Time `json:"-"`
}

// NewState создаёт прогресс нового студента со значениями по умолчанию.
func NewState(username, name string, now time.Time) State {
	if name == "" {
		name = username
	}
	return State{
		Username:         username,
		Name:             name,
		WeakTopics:       []string{DefaultWeakTopic},
		QuizScores:       map[string]float64{},
		CompletedModules: []string{},
		FinalAttempts:    []FinalAttempt{},
		Achievements:     []AchievementID{},
		Notes:            map[string][]NoteEntry{},
		Bookmarks:        []string{},
		StudyPlan:        []StudyEvent{},
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// Clone возвращает глубокую копию.
func (s State) Clone() State {
	c := s
	c.WeakTopics = slices.Clone(s.WeakTopics)
	c.CompletedModules = slices.Clone(s.CompletedModules)
	c.FinalAttempts = slices.Clone(s.FinalAttempts)
	c.Achievements = slices.Clone(s.Achievements)
	c.Bookmarks = slices.Clone(s.Bookmarks)
	c.StudyPlan = slices.Clone(s.StudyPlan)

	if s.QuizScores != nil {
		c.QuizScores = make(map[string]float64, len(s.QuizScores))
		for k, v := range s.QuizScores {
			c.QuizScores[k] = v
		}
	}
	if s.Notes != nil {
		c.Notes = make(map[string][]NoteEntry, len(s.Notes))
		for k, v := range s.Notes {
			c.Notes[k] = slices.Clone(v)
		}
	}
	if s.FinalTestScore != nil {
		score := *s.FinalTestScore
		c.FinalTestScore = &score
	}
	if s.ActiveTimer != nil {
		timer := *s.ActiveTimer
		c.ActiveTimer = &timer
	}
	if s.QuizStartedAt != nil {
		started := *s.QuizStartedAt
		c.QuizStartedAt = &started
	}
	return c
}

// HasAchievement проверяет наличие достижения.
func (s State) HasAchievement(id AchievementID) bool {
	return slices.Contains(s.Achievements, id)
}

// IsCompleted проверяет, пройден ли модуль.
func (s State) IsCompleted(topic string) bool {
	return slices.Contains(s.CompletedModules, topic)
}

// IsBookmarked проверяет закладку.
func (s State) IsBookmarked(topic string) bool {
	return slices.Contains(s.Bookmarks, topic)
}

// TimerActive сообщает, идёт ли учебная сессия.
func (s State) TimerActive() bool {
	return s.ActiveTimer != nil
}
