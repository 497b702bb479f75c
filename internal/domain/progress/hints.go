package progress

import "slices"

// Section - часть интерфейса, которую нужно перерисовать.
type Section string

const (
	SectionDashboard     Section = "dashboard"
	SectionModules       Section = "modules"
	SectionQuiz          Section = "quiz"
	SectionFinal         Section = "final"
	SectionSummary       Section = "summary"
	SectionGamification  Section = "gamification"
	SectionLeaderboard   Section = "leaderboard"
	SectionNotes         Section = "notes"
	SectionCalendar      Section = "calendar"
	SectionNotifications Section = "notifications"
	SectionTimer         Section = "timer"
	SectionProfile       Section = "profile"
)

// Hints - множество устаревших секций, отсортированное и без повторов.
type Hints []Section

// Has проверяет наличие секции.
func (h Hints) Has(s Section) bool {
	return slices.Contains(h, s)
}

func (h Hints) with(sections ...Section) Hints {
	out := append(h, sections...)
	slices.Sort(out)
	return slices.Compact(out)
}
