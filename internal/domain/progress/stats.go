package progress

import (
	"math"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED VIEWS
// Производные данные: не сохраняются, пересчитываются из State.
// ══════════════════════════════════════════════════════════════════════════════

// Stats - сводка для страницы "Summary".
type Stats struct {
	AverageScore     float64 `json:"average_score"`
	HighestTopic     string  `json:"highest_topic,omitempty"`
	HighestScore     float64 `json:"highest_score"`
	LowestTopic      string  `json:"lowest_topic,omitempty"`
	LowestScore      float64 `json:"lowest_score"`
	QuizzesTaken     int     `json:"quizzes_taken"`
	StudyHours       int64   `json:"study_hours"`
	StudyMinutes     int64   `json:"study_minutes"`
	Bookmarks        int     `json:"bookmarks"`
	CompletedModules int     `json:"completed_modules"`
	Achievements     int     `json:"achievements"`
	Streak           int     `json:"streak"`
	FinalTestScore   *int    `json:"final_test_score"`
}

// AverageScore - средняя доля правильных ответов по темам (0 без оценок).
func AverageScore(s State) float64 {
	if len(s.QuizScores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.QuizScores {
		sum += v
	}
	return sum / float64(len(s.QuizScores))
}

// ComputeStats считает сводку. При равных оценках побеждает тема,
// раньше идущая по алфавиту.
func ComputeStats(s State) Stats {
	st := Stats{
		AverageScore:     AverageScore(s),
		QuizzesTaken:     len(s.QuizScores),
		StudyHours:       s.StudyTime / 3600,
		StudyMinutes:     (s.StudyTime % 3600) / 60,
		Bookmarks:        len(s.Bookmarks),
		CompletedModules: len(s.CompletedModules),
		Achievements:     len(s.Achievements),
		Streak:           s.Streak,
		FinalTestScore:   s.FinalTestScore,
	}

	topics := make([]string, 0, len(s.QuizScores))
	for t := range s.QuizScores {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	for i, t := range topics {
		score := s.QuizScores[t]
		if i == 0 || score > st.HighestScore {
			st.HighestTopic, st.HighestScore = t, score
		}
		if i == 0 || score < st.LowestScore {
			st.LowestTopic, st.LowestScore = t, score
		}
	}
	return st
}

// ExportDocument - выгрузка прогресса студента.
type ExportDocument struct {
	Name             string             `json:"name"`
	CompletedModules []string           `json:"completed_modules"`
	QuizScores       map[string]float64 `json:"quiz_scores"`
	FinalTestScore   *int               `json:"final_test_score"`
	Achievements     []AchievementID    `json:"achievements"`
	StudyTimeMinutes int64              `json:"study_time_minutes"`
}

// Export формирует документ выгрузки.
func Export(s State) ExportDocument {
	c := s.Clone()
	Normalize(&c)
	return ExportDocument{
		Name:             c.Name,
		CompletedModules: c.CompletedModules,
		QuizScores:       c.QuizScores,
		FinalTestScore:   c.FinalTestScore,
		Achievements:     c.Achievements,
		StudyTimeMinutes: c.StudyTime / 60,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry - строка рейтинга.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Completed int    `json:"completed"`
	Streak    int    `json:"streak"`
}

// Leaderboard строит рейтинг: score = round(avg*100), сортировка по
// (score, streak) по убыванию, затем по username. limit <= 0 - без ограничения.
func Leaderboard(states []State, limit int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(states))
	for _, s := range states {
		entries = append(entries, LeaderboardEntry{
			Username:  s.Username,
			Name:      s.Name,
			Score:     int(math.Round(AverageScore(s) * 100)),
			Completed: len(s.CompletedModules),
			Streak:    s.Streak,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Streak != b.Streak {
			return a.Streak > b.Streak
		}
		return a.Username < b.Username
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
