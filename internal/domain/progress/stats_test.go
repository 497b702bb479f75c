package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	s := NewState("amy", "", at("2024-01-01T00:00:00"))
	s.QuizScores = map[string]float64{"Algebra": 0.5, "Calculus": 1.0, "Geometry": 0.5}
	s.StudyTime = 2*3600 + 15*60 + 30
	s.Bookmarks = []string{"Algebra"}

	st := ComputeStats(s)
	assert.InDelta(t, 2.0/3.0, st.AverageScore, 1e-9)
	assert.Equal(t, "Calculus", st.HighestTopic)
	assert.Equal(t, "Algebra", st.LowestTopic)
	assert.Equal(t, 3, st.QuizzesTaken)
	assert.Equal(t, int64(2), st.StudyHours)
	assert.Equal(t, int64(15), st.StudyMinutes)
	assert.Equal(t, 1, st.Bookmarks)

	empty := ComputeStats(NewState("bob", "", at("2024-01-01T00:00:00")))
	assert.Zero(t, empty.AverageScore)
	assert.Empty(t, empty.HighestTopic)
}

func TestExport(t *testing.T) {
	s := NewState("amy", "Amy", at("2024-01-01T00:00:00"))
	s.StudyTime = 125
	s.CompletedModules = []string{"Algebra"}

	doc := Export(s)
	assert.Equal(t, "Amy", doc.Name)
	assert.Equal(t, int64(2), doc.StudyTimeMinutes)
	assert.Equal(t, []string{"Algebra"}, doc.CompletedModules)
	assert.Nil(t, doc.FinalTestScore)
}

func TestLeaderboard(t *testing.T) {
	mk := func(name string, avg float64, streak int) State {
		s := NewState(name, "", at("2024-01-01T00:00:00"))
		if avg >= 0 {
			s.QuizScores["Algebra"] = avg
		}
		s.Streak = streak
		return s
	}

	entries := Leaderboard([]State{
		mk("carol", 0.8, 1),
		mk("amy", 0.8, 5),
		mk("bob", 0.8, 5),
		mk("dave", -1, 9),
		mk("erin", 0.93, 0),
	}, 0)

	require.Len(t, entries, 5)
	var order []string
	for _, e := range entries {
		order = append(order, e.Username)
	}
	assert.Equal(t, []string{"erin", "amy", "bob", "carol", "dave"}, order)
	assert.Equal(t, 93, entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 0, entries[4].Score)

	assert.Len(t, Leaderboard([]State{mk("a", 1, 0), mk("b", 1, 0)}, 1), 1)
}
