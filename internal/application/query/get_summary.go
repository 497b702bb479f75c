package query

import (
	"context"
	"errors"
	"strings"

	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUMMARY QUERY
// Прогресс студента со сводкой и каталогом достижений.
// ══════════════════════════════════════════════════════════════════════════════

// GetSummaryQuery содержит параметры запроса сводки.
type GetSummaryQuery struct {
	Username string
}

// Validate проверяет корректность параметров запроса.
func (q *GetSummaryQuery) Validate() error {
	q.Username = strings.TrimSpace(q.Username)
	if q.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// AchievementDTO - достижение каталога с отметкой получения.
type AchievementDTO struct {
	progress.AchievementDefinition
	Earned bool `json:"earned"`
}

// GetSummaryResult - прогресс и производные данные.
type GetSummaryResult struct {
	State        progress.State        `json:"progress"`
	Stats        progress.Stats        `json:"stats"`
	Achievements []AchievementDTO      `json:"achievements"`
	Today        []progress.StudyEvent `json:"today"`
}

// GetSummaryHandler обрабатывает запрос сводки.
type GetSummaryHandler struct {
	store session.ProgressStore
	live  LiveSessions
	today func() string
}

// NewGetSummaryHandler создаёт обработчик. today возвращает текущую дату YYYY-MM-DD.
func NewGetSummaryHandler(store session.ProgressStore, live LiveSessions, today func() string) *GetSummaryHandler {
	return &GetSummaryHandler{store: store, live: live, today: today}
}

// Handle выполняет запрос.
func (h *GetSummaryHandler) Handle(ctx context.Context, query GetSummaryQuery) (*GetSummaryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetSummary", shared.ErrValidation, err.Error(), err)
	}

	state, err := loadState(ctx, h.store, h.live, query.Username)
	if err != nil {
		return nil, err
	}

	catalog := progress.Catalog()
	achievements := make([]AchievementDTO, len(catalog))
	for i, def := range catalog {
		achievements[i] = AchievementDTO{AchievementDefinition: def, Earned: state.HasAchievement(def.ID)}
	}

	result := &GetSummaryResult{
		State:        state,
		Stats:        progress.ComputeStats(state),
		Achievements: achievements,
	}
	if h.today != nil {
		result.Today = progress.EventsOn(state, h.today())
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET QUIZ QUERY
// Персональный квиз по слабым темам без правильных ответов.
// ══════════════════════════════════════════════════════════════════════════════

// QuizTopic - вопросы одной темы.
type QuizTopic struct {
	Topic     string                `json:"topic"`
	Questions []quiz.PublicQuestion `json:"questions"`
}

// GetQuizResult - квиз студента.
type GetQuizResult struct {
	Topics           []QuizTopic `json:"topics"`
	TimeLimitSeconds int         `json:"time_limit_seconds"`
}

// GetQuizHandler собирает квиз.
type GetQuizHandler struct {
	store session.ProgressStore
	live  LiveSessions
	bank  quiz.Bank
}

// NewGetQuizHandler создаёт обработчик.
func NewGetQuizHandler(store session.ProgressStore, live LiveSessions, bank quiz.Bank) *GetQuizHandler {
	return &GetQuizHandler{store: store, live: live, bank: bank}
}

// Handle возвращает квиз по слабым темам, у которых есть вопросы в банке.
func (h *GetQuizHandler) Handle(ctx context.Context, query GetSummaryQuery) (*GetQuizResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetQuiz", shared.ErrValidation, err.Error(), err)
	}

	state, err := loadState(ctx, h.store, h.live, query.Username)
	if err != nil {
		return nil, err
	}

	result := &GetQuizResult{
		Topics:           []QuizTopic{},
		TimeLimitSeconds: int(quiz.QuizTimeLimit.Seconds()),
	}
	for _, topic := range state.WeakTopics {
		questions := h.bank.Questions(topic)
		if len(questions) == 0 {
			continue
		}
		qt := QuizTopic{Topic: topic, Questions: make([]quiz.PublicQuestion, len(questions))}
		for i, q := range questions {
			qt.Questions[i] = q.Public()
		}
		result.Topics = append(result.Topics, qt)
	}
	return result, nil
}

// FinalQuestion - вопрос финального теста со ссылкой на банк.
type FinalQuestion struct {
	quiz.FinalRef
	quiz.PublicQuestion
}

// GetFinalResult - финальный тест.
type GetFinalResult struct {
	Questions        []FinalQuestion `json:"questions"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
}

// FinalExam возвращает вопросы финального теста без ответов. Ссылки на
// отсутствующие вопросы пропускаются.
func FinalExam(bank quiz.Bank) *GetFinalResult {
	result := &GetFinalResult{
		Questions:        []FinalQuestion{},
		TimeLimitSeconds: int(quiz.FinalTimeLimit.Seconds()),
	}
	for _, ref := range bank.FinalExam() {
		q, ok := quiz.Lookup(bank, ref)
		if !ok {
			continue
		}
		result.Questions = append(result.Questions, FinalQuestion{FinalRef: ref, PublicQuestion: q.Public()})
	}
	return result
}
