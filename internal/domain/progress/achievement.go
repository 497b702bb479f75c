package progress

import (
	"fmt"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementID определяет тип достижения.
type AchievementID string

const (
	// AchievementFirstStep - пройден первый модуль.
	AchievementFirstStep AchievementID = "first_step"

	// AchievementQuizWhiz - тема квиза сдана на 100%.
	AchievementQuizWhiz AchievementID = "quiz_whiz"

	// AchievementStreakStarter - серия из 3 дней.
	AchievementStreakStarter AchievementID = "streak_starter"

	// AchievementPerfectionist - финальный тест на 100%.
	AchievementPerfectionist AchievementID = "perfectionist"

	// AchievementSpeedster - квиз быстрее 5 минут.
	AchievementSpeedster AchievementID = "speedster"
)

const (
	// StreakStarterDays - длина серии для streak_starter.
	StreakStarterDays = 3

	// DefaultSpeedsterThreshold - время квиза для speedster (строго меньше).
	DefaultSpeedsterThreshold = 300 * time.Second
)

// AchievementDefinition описывает достижение в каталоге.
type AchievementDefinition struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
}

var catalog = []AchievementDefinition{
	{ID: AchievementFirstStep, Name: "First Step", Description: "Complete your first module.", Icon: "fa-shoe-prints"},
	{ID: AchievementQuizWhiz, Name: "Quiz Whiz", Description: "Score 100% on a quiz.", Icon: "fa-star"},
	{ID: AchievementStreakStarter, Name: "Streak Starter", Description: "Maintain a 3-day streak.", Icon: "fa-fire"},
	{ID: AchievementPerfectionist, Name: "Perfectionist", Description: "Score 100% on final test.", Icon: "fa-crown"},
	{ID: AchievementSpeedster, Name: "Speedster", Description: "Complete quiz in under 5 minutes.", Icon: "fa-bolt"},
}

// Catalog возвращает фиксированный каталог достижений.
func Catalog() []AchievementDefinition {
	out := make([]AchievementDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// Definition возвращает описание достижения.
func (id AchievementID) Definition() (AchievementDefinition, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDefinition{}, false
}

// IsKnown проверяет, что достижение есть в каталоге.
func (id AchievementID) IsKnown() bool {
	_, ok := id.Definition()
	return ok
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// achievementInput - данные текущего перехода, которых нет в State.
type achievementInput struct {
	// quizElapsed - время квиза от StartQuiz; nil, если старт не записан.
	quizElapsed *time.Duration

	speedsterThreshold time.Duration
}

// checkAchievements разблокирует достижения, условия которых выполнены.
// Каждое достижение проверяется на членство до добавления, поэтому
// повторная проверка никогда не дублирует ни достижение, ни уведомление.
func checkAchievements(s *State, in achievementInput) []AchievementID {
	existing := make(map[AchievementID]bool, len(s.Achievements))
	for _, id := range s.Achievements {
		existing[id] = true
	}

	var unlocked []AchievementID
	unlock := func(id AchievementID) {
		if existing[id] {
			return
		}
		existing[id] = true
		s.Achievements = append(s.Achievements, id)
		unlocked = append(unlocked, id)
	}

	if len(s.CompletedModules) >= 1 {
		unlock(AchievementFirstStep)
	}

	for _, score := range s.QuizScores {
		if score == 1.0 {
			unlock(AchievementQuizWhiz)
			break
		}
	}

	if s.Streak >= StreakStarterDays {
		unlock(AchievementStreakStarter)
	}

	if s.FinalTestScore != nil && *s.FinalTestScore == 100 {
		unlock(AchievementPerfectionist)
	}

	if in.quizElapsed != nil {
		threshold := in.speedsterThreshold
		if threshold <= 0 {
			threshold = DefaultSpeedsterThreshold
		}
		if *in.quizElapsed < threshold {
			unlock(AchievementSpeedster)
		}
	}

	return unlocked
}

// CheckAchievements - чистая версия проверки без данных квиза.
func CheckAchievements(s State) (State, []AchievementID) {
	c := s.Clone()
	unlocked := checkAchievements(&c, achievementInput{})
	return c, unlocked
}

// achievementNotification формирует уведомление о новом достижении.
func achievementNotification(username string, id AchievementID, at time.Time) (notification.Notification, error) {
	def, ok := id.Definition()
	if !ok {
		return notification.Notification{}, fmt.Errorf("progress: unknown achievement %q", id)
	}
	return notification.New(notification.NewParams{
		Type:      notification.TypeAchievement,
		Recipient: username,
		Title:     "Achievement Unlocked!",
		Message:   fmt.Sprintf("You earned the %q badge!", def.Name),
		At:        at,
	})
}
