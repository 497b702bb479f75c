package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA BOUNDARY
// Документы из хранилища не доверенные: Decode отклоняет битые документы,
// а недостающие и некорректные поля заполняет/исправляет через Normalize.
// ══════════════════════════════════════════════════════════════════════════════

// Repair описывает одно исправление документа.
type Repair struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (r Repair) String() string {
	return r.Field + ": " + r.Reason
}

// Decode разбирает документ прогресса.
func Decode(data []byte) (State, []Repair, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return State{}, nil, shared.WrapError("progress", "Decode", shared.ErrInvalidFormat,
			"progress document must be a JSON object", nil)
	}

	var s State
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return State{}, nil, shared.WrapError("progress", "Decode", shared.ErrInvalidFormat,
			"invalid progress document", err)
	}

	if strings.TrimSpace(s.Username) == "" {
		return State{}, nil, shared.ErrMissingUsername
	}

	repairs := Normalize(&s)
	return s, repairs, nil
}

// Encode нормализует и сериализует документ.
func Encode(s State) ([]byte, error) {
	c := s.Clone()
	Normalize(&c)
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("progress: encode %s: %w", s.Username, err)
	}
	return data, nil
}

// Normalize приводит документ к инвариантам и возвращает список исправлений.
func Normalize(s *State) []Repair {
	var repairs []Repair
	fix := func(field, reason string) {
		repairs = append(repairs, Repair{Field: field, Reason: reason})
	}

	if strings.TrimSpace(s.Name) == "" {
		s.Name = s.Username
		fix("name", "defaulted to username")
	}

	if s.WeakTopics == nil {
		s.WeakTopics = []string{}
		fix("weak_topics", "defaulted")
	}
	if deduped, changed := dedupeStrings(s.WeakTopics); changed {
		s.WeakTopics = deduped
		fix("weak_topics", "removed duplicates or blanks")
	}

	if s.QuizScores == nil {
		s.QuizScores = map[string]float64{}
		fix("quiz_scores", "defaulted")
	}
	for topic, score := range s.QuizScores {
		switch {
		case math.IsNaN(score) || math.IsInf(score, 0) || strings.TrimSpace(topic) == "":
			delete(s.QuizScores, topic)
			fix("quiz_scores."+topic, "dropped invalid score")
		case score < 0:
			s.QuizScores[topic] = 0
			fix("quiz_scores."+topic, "clamped to 0")
		case score > 1:
			s.QuizScores[topic] = 1
			fix("quiz_scores."+topic, "clamped to 1")
		}
	}

	if s.CompletedModules == nil {
		s.CompletedModules = []string{}
		fix("completed_modules", "defaulted")
	}
	if deduped, changed := dedupeStrings(s.CompletedModules); changed {
		s.CompletedModules = deduped
		fix("completed_modules", "removed duplicates or blanks")
	}

	if s.FinalTestScore != nil {
		if *s.FinalTestScore < 0 || *s.FinalTestScore > 100 {
			clamped := min(max(*s.FinalTestScore, 0), 100)
			s.FinalTestScore = &clamped
			fix("final_test_score", "clamped to [0,100]")
		}
	}
	if s.FinalAttempts == nil {
		s.FinalAttempts = []FinalAttempt{}
	}

	if s.Streak < 0 {
		s.Streak = 0
		fix("streak", "negative streak reset")
	}

	if s.LastLoginDate != "" {
		if _, err := timeutil.ParseDate(s.LastLoginDate, time.UTC); err != nil {
			s.LastLoginDate = ""
			fix("lastLoginDate", "unparsable date dropped")
		}
	}
	if s.LastLoginDate != "" && s.Streak == 0 {
		s.Streak = 1
		fix("streak", "raised to 1 after a recorded login")
	}

	if s.Achievements == nil {
		s.Achievements = []AchievementID{}
		fix("achievements", "defaulted")
	}
	known := make([]AchievementID, 0, len(s.Achievements))
	for _, id := range s.Achievements {
		if !id.IsKnown() {
			fix("achievements", fmt.Sprintf("unknown achievement %q dropped", id))
			continue
		}
		if slices.Contains(known, id) {
			fix("achievements", fmt.Sprintf("duplicate achievement %q dropped", id))
			continue
		}
		known = append(known, id)
	}
	s.Achievements = known

	if s.StudyTime < 0 {
		s.StudyTime = 0
		fix("study_time", "negative study time reset")
	}

	if s.Notes == nil {
		s.Notes = map[string][]NoteEntry{}
		fix("notes", "defaulted")
	}
	for topic, entries := range s.Notes {
		kept := entries[:0]
		for _, n := range entries {
			if strings.TrimSpace(n.Content) != "" {
				kept = append(kept, n)
			}
		}
		if len(kept) != len(entries) {
			fix("notes."+topic, "empty notes dropped")
		}
		if len(kept) == 0 {
			delete(s.Notes, topic)
			fix("notes."+topic, "empty topic removed")
			continue
		}
		s.Notes[topic] = kept
	}

	if s.Bookmarks == nil {
		s.Bookmarks = []string{}
		fix("bookmarks", "defaulted")
	}
	if deduped, changed := dedupeStrings(s.Bookmarks); changed {
		s.Bookmarks = deduped
		fix("bookmarks", "removed duplicates or blanks")
	}

	if s.StudyPlan == nil {
		s.StudyPlan = []StudyEvent{}
		fix("study_plan", "defaulted")
	}
	seen := make(map[EventID]bool, len(s.StudyPlan))
	for i := range s.StudyPlan {
		id := s.StudyPlan[i].ID
		if id == "" || seen[id] {
			s.StudyPlan[i].ID = NewEventID()
			fix("study_plan", fmt.Sprintf("event id %q regenerated", id))
		}
		seen[s.StudyPlan[i].ID] = true
	}

	return repairs
}

func dedupeStrings(in []string) ([]string, bool) {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.TrimSpace(v) == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out, len(out) != len(in)
}
