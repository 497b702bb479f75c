package progress

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANSWERS
// ══════════════════════════════════════════════════════════════════════════════

// NotAnswered - отметка для вопроса без ответа в разборе квиза.
const NotAnswered = "Not answered"

// AnswerKey - адрес вопроса: тема и индекс в банке.
type AnswerKey struct {
	Topic string
	Index int
}

// Answers - выбранные варианты по вопросам.
type Answers map[AnswerKey]string

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// QuestionResult - разбор одного вопроса (производные данные, не сохраняются).
type QuestionResult struct {
	Topic       string `json:"topic"`
	Question    string `json:"question"`
	Selected    string `json:"selected"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
	Correct     bool   `json:"correct"`
}

// QuizSummary - итог квиза.
type QuizSummary struct {
	Correct     int                `json:"correct"`
	Total       int                `json:"total"`
	Percent     int                `json:"percent"`
	TopicScores map[string]float64 `json:"topic_scores"`
	Elapsed     time.Duration      `json:"elapsed"`
	OverTime    bool               `json:"over_time"`
	Results     []QuestionResult   `json:"results"`
}

// ScoreQuiz оценивает квиз по слабым темам, которые есть в банке.
// Оценка темы перезаписывается, неотвеченные вопросы считаются неверными.
func ScoreQuiz(s State, bank quiz.Bank, answers Answers, elapsed time.Duration) (State, QuizSummary) {
	c := s.Clone()
	summary := scoreQuiz(&c, bank, answers, elapsed)
	return c, summary
}

func scoreQuiz(s *State, bank quiz.Bank, answers Answers, elapsed time.Duration) QuizSummary {
	summary := QuizSummary{
		TopicScores: map[string]float64{},
		Elapsed:     elapsed,
		OverTime:    elapsed > quiz.QuizTimeLimit,
	}
	if s.QuizScores == nil {
		s.QuizScores = map[string]float64{}
	}

	for _, topic := range s.WeakTopics {
		questions := bank.Questions(topic)
		if len(questions) == 0 {
			continue
		}

		correct := 0
		for i, q := range questions {
			selected, answered := answers[AnswerKey{Topic: topic, Index: i}]
			ok := answered && q.IsCorrect(selected)
			if ok {
				correct++
			}
			if !answered || selected == "" {
				selected = NotAnswered
			}
			summary.Results = append(summary.Results, QuestionResult{
				Topic:       topic,
				Question:    q.Text,
				Selected:    selected,
				Answer:      q.Answer,
				Explanation: q.Explanation,
				Correct:     ok,
			})
		}

		score := float64(correct) / float64(len(questions))
		s.QuizScores[topic] = score
		summary.TopicScores[topic] = score
		summary.Correct += correct
		summary.Total += len(questions)
	}

	if summary.Total > 0 {
		summary.Percent = roundPercent(summary.Correct, summary.Total)
	}
	return summary
}

// DefaultWeakTopicThreshold - тема с оценкой ниже 0.7 остаётся слабой.
const DefaultWeakTopicThreshold = 0.7

// recomputeWeakTopics оставляет в слабых темах неоценённые темы и темы ниже порога,
// добавляя оценённые темы ниже порога, которых там ещё нет.
func recomputeWeakTopics(s *State, threshold float64) bool {
	next := make([]string, 0, len(s.WeakTopics))
	for _, topic := range s.WeakTopics {
		score, scored := s.QuizScores[topic]
		if !scored || score < threshold {
			next = append(next, topic)
		}
	}

	var extra []string
	for topic, score := range s.QuizScores {
		if score < threshold && !slices.Contains(next, topic) {
			extra = append(extra, topic)
		}
	}
	sort.Strings(extra)
	next = append(next, extra...)

	if slices.Equal(next, s.WeakTopics) {
		return false
	}
	s.WeakTopics = next
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// FINAL EXAM
// ══════════════════════════════════════════════════════════════════════════════

// FinalResult - итог финального теста.
type FinalResult struct {
	Score   int             `json:"score"`
	Correct int             `json:"correct"`
	Total   int             `json:"total"`
	Skipped int             `json:"skipped"`
	Attempt int             `json:"attempt"`
	Missing []quiz.FinalRef `json:"missing,omitempty"`
	Passed  bool            `json:"passed"`
}

// PassingScore - порог "успешной" сдачи для отображения.
const PassingScore = 80

// ScoreFinal оценивает финальный тест. Ссылки на отсутствующие вопросы
// пропускаются, но знаменатель всегда max(len(refs), 1).
func ScoreFinal(s State, bank quiz.Bank, refs []quiz.FinalRef, answers Answers, at time.Time) (State, FinalResult) {
	c := s.Clone()
	result := scoreFinal(&c, bank, refs, answers, at)
	return c, result
}

func scoreFinal(s *State, bank quiz.Bank, refs []quiz.FinalRef, answers Answers, at time.Time) FinalResult {
	result := FinalResult{Total: len(refs)}

	for _, ref := range refs {
		q, ok := quiz.Lookup(bank, ref)
		if !ok {
			result.Skipped++
			result.Missing = append(result.Missing, ref)
			continue
		}
		if q.IsCorrect(answers[AnswerKey{Topic: ref.Topic, Index: ref.Index}]) {
			result.Correct++
		}
	}

	result.Score = roundPercent(result.Correct, max(len(refs), 1))
	result.Passed = result.Score >= PassingScore

	score := result.Score
	s.FinalTestScore = &score
	s.FinalAttempts = append(s.FinalAttempts, FinalAttempt{
		Score:       result.Score,
		Correct:     result.Correct,
		Total:       result.Total,
		Skipped:     result.Skipped,
		SubmittedAt: at.UTC(),
	})
	result.Attempt = len(s.FinalAttempts)
	return result
}

// roundPercent = round(100 * part / whole), половина округляется вверх.
func roundPercent(part, whole int) int {
	return int(math.Floor(100*float64(part)/float64(whole) + 0.5))
}
