// Package quiz содержит банк вопросов: вопросы по темам и состав финального теста.
// С точки зрения движка прогресса банк доступен только для чтения.
package quiz

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIMITS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// QuizTimeLimit - лимит времени обычного квиза (по истечении форма отправляется).
	QuizTimeLimit = 600 * time.Second

	// FinalTimeLimit - лимит времени финального теста.
	FinalTimeLimit = 1200 * time.Second
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty - сложность вопроса.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question - один вопрос банка.
type Question struct {
	// Text - формулировка вопроса.
	Text string `json:"q"`

	// Options - варианты ответа.
	Options []string `json:"options"`

	// Answer - правильный вариант (совпадает с одним из Options).
	Answer string `json:"ans"`

	// Hint - подсказка (необязательно).
	Hint string `json:"hint,omitempty"`

	// Explanation - объяснение правильного ответа (необязательно).
	Explanation string `json:"explanation,omitempty"`

	// Difficulty - сложность.
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// IsCorrect проверяет выбранный вариант.
func (q Question) IsCorrect(selected string) bool {
	return selected != "" && selected == q.Answer
}

// Public возвращает вопрос без правильного ответа и объяснения (для выдачи студенту).
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{Text: q.Text, Options: options, Hint: q.Hint}
}

// PublicQuestion - вопрос без ответа.
type PublicQuestion struct {
	Text    string   `json:"q"`
	Options []string `json:"options"`
	Hint    string   `json:"hint,omitempty"`
}

// FinalRef - ссылка на вопрос финального теста: тема и индекс в банке.
type FinalRef struct {
	Topic string `json:"topic"`
	Index int    `json:"index"`
}

// ══════════════════════════════════════════════════════════════════════════════
// BANK
// ══════════════════════════════════════════════════════════════════════════════

// Bank - источник вопросов.
type Bank interface {
	// Questions возвращает упорядоченный список вопросов темы (nil если темы нет).
	Questions(topic string) []Question

	// Topics возвращает темы банка.
	Topics() []string

	// FinalExam возвращает состав финального теста.
	FinalExam() []FinalRef
}

// Lookup разрешает ссылку финального теста.
func Lookup(b Bank, ref FinalRef) (Question, bool) {
	questions := b.Questions(ref.Topic)
	if ref.Index < 0 || ref.Index >= len(questions) {
		return Question{}, false
	}
	return questions[ref.Index], true
}

// MapBank - банк в памяти.
type MapBank struct {
	topics map[string][]Question
	final  []FinalRef
}

// NewMapBank создаёт банк из карты тема → вопросы. Данные копируются.
func NewMapBank(topics map[string][]Question, final []FinalRef) *MapBank {
	b := &MapBank{
		topics: make(map[string][]Question, len(topics)),
		final:  append([]FinalRef(nil), final...),
	}
	for topic, questions := range topics {
		b.topics[topic] = append([]Question(nil), questions...)
	}
	return b
}

// Questions реализует Bank.
func (b *MapBank) Questions(topic string) []Question {
	return b.topics[topic]
}

// Topics реализует Bank. Темы отсортированы.
func (b *MapBank) Topics() []string {
	topics := make([]string, 0, len(b.topics))
	for t := range b.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// FinalExam реализует Bank.
func (b *MapBank) FinalExam() []FinalRef {
	return append([]FinalRef(nil), b.final...)
}

// BuildFinalExam берёт до perTopic первых вопросов каждой темы.
func BuildFinalExam(b Bank, perTopic int) []FinalRef {
	var refs []FinalRef
	for _, topic := range b.Topics() {
		n := len(b.Questions(topic))
		if n > perTopic {
			n = perTopic
		}
		for i := 0; i < n; i++ {
			refs = append(refs, FinalRef{Topic: topic, Index: i})
		}
	}
	return refs
}
