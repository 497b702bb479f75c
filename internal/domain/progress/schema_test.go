package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

func TestDecode_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"array", `[1,2]`},
		{"string", `"amy"`},
		{"broken", `{"username": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidFormat)
		})
	}

	_, _, err := Decode([]byte(`{"name": "Amy"}`))
	assert.ErrorIs(t, err, shared.ErrMissingUsername)
}

func TestDecode_LegacyDocument(t *testing.T) {
	// документ в формате старого клиента: числовой id, лишние поля, null-коллекции
	doc := `{
		"username": "amy",
		"weak_topics": ["Algebra", "Algebra", ""],
		"quiz_scores": {"Algebra": 1.4, "Calculus": -0.5},
		"final_test_score": 140,
		"streak": -2,
		"lastLoginDate": "yesterday",
		"achievements": ["first_step", "first_step", "legend"],
		"study_time": 600,
		"notes": {"Algebra": [{"content": "  "}]},
		"bookmarks": null,
		"study_plan": [
			{"id": 1704880000000, "date": "2024-01-10", "time": "09:00", "title": "a"},
			{"id": 1704880000000, "date": "2024-01-11", "time": "09:00", "title": "b"}
		],
		"theme": "dark"
	}`

	s, repairs, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.NotEmpty(t, repairs)

	assert.Equal(t, "amy", s.Name)
	assert.Equal(t, []string{"Algebra"}, s.WeakTopics)
	assert.Equal(t, 1.0, s.QuizScores["Algebra"])
	assert.Equal(t, 0.0, s.QuizScores["Calculus"])
	require.NotNil(t, s.FinalTestScore)
	assert.Equal(t, 100, *s.FinalTestScore)
	assert.Equal(t, 0, s.Streak)
	assert.Empty(t, s.LastLoginDate)
	assert.Equal(t, []AchievementID{AchievementFirstStep}, s.Achievements)
	assert.Empty(t, s.Notes)
	assert.NotNil(t, s.Bookmarks)

	require.Len(t, s.StudyPlan, 2)
	assert.Equal(t, EventID("1704880000000"), s.StudyPlan[0].ID)
	assert.NotEqual(t, s.StudyPlan[0].ID, s.StudyPlan[1].ID)
}

func TestEncodeDecode_PreservesState(t *testing.T) {
	s := NewState("amy", "Amy", at("2024-01-01T00:00:00"))
	s.QuizScores["Algebra"] = 0.6
	s.Streak = 4
	s.LastLoginDate = "2024-01-10"
	s.Notes["Algebra"] = []NoteEntry{{Content: "x", Date: at("2024-01-10T09:00:00")}}
	s.StudyPlan = append(s.StudyPlan, StudyEvent{ID: "e1", Date: "2024-01-10", Time: "09:00", Title: "t", Reminder: true})
	s.ActiveTimer = &Timer{StartedAt: at("2024-01-10T09:00:00")}

	data, err := Encode(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "lastLoginDate")
	assert.NotContains(t, raw, "ActiveTimer")

	got, repairs, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, repairs)

	s.ActiveTimer = nil
	assert.Equal(t, s, got)
}

func TestNormalize_RaisesStreakAfterLogin(t *testing.T) {
	s := NewState("amy", "", at("2024-01-01T00:00:00"))
	s.LastLoginDate = "2024-01-10"

	repairs := Normalize(&s)
	assert.Equal(t, 1, s.Streak)
	assert.Len(t, repairs, 1)
}
