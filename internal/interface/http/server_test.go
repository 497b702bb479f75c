package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/roshankumarc210506-arch/learnsphere/internal/application/query"
	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/memory"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

type ServerSuite struct {
	suite.Suite
	clock    *timeutil.ManualClock
	store    *memory.ProgressStore
	notes    *memory.NotificationStore
	registry *session.Registry
	handler  http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.clock = timeutil.NewManualClock(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	s.store = memory.NewProgressStore()
	s.notes = memory.NewNotificationStore()

	bank := quiz.SeedBank()
	engine := progress.NewEngine(bank, s.clock, progress.DefaultOptions(), nil)
	s.registry = session.NewRegistry(engine, s.store, s.notes, session.DefaultConfig(), nil)
	today := func() string { return timeutil.ISODate(s.clock.Now(), time.UTC) }

	srv := NewServer(DefaultConfig(), Dependencies{
		Registry:      s.registry,
		Bank:          bank,
		Notifications: s.notes,
		Leaderboard:   query.NewGetLeaderboardHandler(s.store, s.registry, s.clock),
		Summary:       query.NewGetSummaryHandler(s.store, s.registry, today),
		Quiz:          query.NewGetQuizHandler(s.store, s.registry, bank),
		Export:        query.NewGetExportHandler(s.store, s.registry),
		Clock:         s.clock,
	})
	s.handler = srv.Handler()
}

func (s *ServerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *ServerSuite) open(username string) resultResponse {
	rec := s.do(http.MethodPost, "/api/students/"+username+"/session", openSessionRequest{Name: "Amy Pond"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return decode[resultResponse](s.T(), rec)
}

func (s *ServerSuite) TestHealth() {
	s.open("amy")
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
	body := decode[map[string]any](s.T(), rec)
	s.Equal(true, body["healthy"])
	s.Equal(float64(1), body["sessions"])
}

func (s *ServerSuite) TestOpenSession_SeedsAndCountsLogin() {
	res := s.open("amy")
	s.Equal("amy", res.Progress.Username)
	s.Equal("Amy Pond", res.Progress.Name)
	s.Equal(1, res.Progress.Streak)
	s.True(res.Saved)

	stored, err := s.store.Load(context.Background(), "amy")
	s.Require().NoError(err)
	s.Equal("2024-01-10", stored.LastLoginDate)
}

func (s *ServerSuite) TestCloseSession() {
	s.open("amy")
	rec := s.do(http.MethodDelete, "/api/students/amy/session", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Zero(s.registry.Len())

	rec = s.do(http.MethodDelete, "/api/students/amy/session", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestEvent_RequiresSession() {
	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "start_timer"})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("No open session. Please log in first.", decode[errorResponse](s.T(), rec).Error)
}

func (s *ServerSuite) TestEvent_ValidationIs400() {
	s.open("amy")

	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "add_note", "topic": "Algebra"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Please select a topic and write a note.", decode[errorResponse](s.T(), rec).Error)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "dance"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "quiz_submit", "answers": []any{}})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Please answer at least one question.", decode[errorResponse](s.T(), rec).Error)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "start_timer", "bogus": 1})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestEvent_ModuleCompleteUnlocksAchievement() {
	s.open("amy")

	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "mark_module_complete", "topic": "Algebra"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultResponse](s.T(), rec)
	s.Equal([]string{"Algebra"}, res.Progress.CompletedModules)
	s.Equal([]progress.AchievementID{progress.AchievementFirstStep}, res.Unlocked)
	s.Len(res.Notifications, 1)
	s.Equal(1, res.Unread)

	rec = s.do(http.MethodGet, "/api/students/amy/notifications", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	list := decode[notificationsResponse](s.T(), rec)
	s.Require().Len(list.Notifications, 1)
	s.Equal(1, list.Unread)
	s.Equal("Just now", list.Notifications[0].TimeAgo)

	rec = s.do(http.MethodPost, "/api/students/amy/notifications/read", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, decode[markReadResponse](s.T(), rec).Marked)

	// история доступна и без открытой сессии
	s.do(http.MethodDelete, "/api/students/amy/session", nil)
	s.clock.Advance(3 * time.Hour)
	rec = s.do(http.MethodGet, "/api/students/amy/notifications", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	list = decode[notificationsResponse](s.T(), rec)
	s.Require().Len(list.Notifications, 1)
	s.Zero(list.Unread)
	s.Equal("3 hours ago", list.Notifications[0].TimeAgo)
}

func (s *ServerSuite) TestEvent_QuizSubmit() {
	s.open("amy")

	answers := []answerDTO{}
	for i, q := range quiz.SeedBank().Questions("Algebra") {
		answers = append(answers, answerDTO{Topic: "Algebra", Index: i, Answer: q.Answer})
	}
	rec := s.do(http.MethodGet, "/api/students/amy/quiz", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.clock.Advance(time.Minute)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{
		"type":    "quiz_submit",
		"answers": answers,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultResponse](s.T(), rec)
	s.Require().NotNil(res.Quiz)
	s.Equal(100, res.Quiz.Percent)
	s.Equal(time.Minute, res.Quiz.Elapsed)
	s.Contains(res.Unlocked, progress.AchievementQuizWhiz)
	s.Contains(res.Unlocked, progress.AchievementSpeedster)

	rec = s.do(http.MethodGet, "/api/leaderboard?limit=5", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	board := decode[query.GetLeaderboardResult](s.T(), rec)
	s.Require().Len(board.Entries, 1)
	s.Equal(100, board.Entries[0].Score)
}

func (s *ServerSuite) TestEvent_QuizSubmitWithoutStartIsUntimed() {
	s.open("amy")

	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{
		"type":    "quiz_submit",
		"answers": []answerDTO{{Topic: "Algebra", Index: 0, Answer: "b"}},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultResponse](s.T(), rec)
	s.NotContains(res.Unlocked, progress.AchievementSpeedster)
	s.NotContains(res.Progress.Achievements, progress.AchievementSpeedster)

	// время квиза задаёт сервер, а не клиент
	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{
		"type":            "quiz_submit",
		"answers":         []answerDTO{{Topic: "Algebra", Index: 0, Answer: "b"}},
		"elapsed_seconds": 1,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestEvent_SaveFailureKeepsState() {
	s.open("amy")
	s.store.SaveErr = errors.New("disk full")

	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "toggle_bookmark", "topic": "Calculus"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultResponse](s.T(), rec)
	s.False(res.Saved)
	s.Equal([]string{"Calculus"}, res.Progress.Bookmarks)

	sess, ok := s.registry.Get("amy")
	s.Require().True(ok)
	s.True(sess.Dirty())
}

func (s *ServerSuite) TestEvent_StudyPlan() {
	s.open("amy")

	rec := s.do(http.MethodPost, "/api/students/amy/events", map[string]any{
		"type": "add_event", "title": "Review", "date": "2024-01-10", "time": "25:00",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{
		"type": "add_event", "title": "Review", "date": "2024-01-10", "time": "09:30", "reminder": true,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[resultResponse](s.T(), rec)
	s.Require().NotNil(res.Event)
	s.Len(res.Progress.StudyPlan, 1)

	rec = s.do(http.MethodGet, "/api/students/amy/progress", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	summary := decode[query.GetSummaryResult](s.T(), rec)
	s.Len(summary.Today, 1)

	rec = s.do(http.MethodPost, "/api/students/amy/events", map[string]any{"type": "delete_event", "id": string(res.Event.ID)})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(decode[resultResponse](s.T(), rec).Progress.StudyPlan)
}

func (s *ServerSuite) TestReadModels() {
	rec := s.do(http.MethodGet, "/api/students/ghost/progress", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	s.open("amy")

	rec = s.do(http.MethodGet, "/api/students/amy/quiz", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), `"answer"`)
	q := decode[query.GetQuizResult](s.T(), rec)
	s.Require().Len(q.Topics, 1)
	s.Equal(progress.DefaultWeakTopic, q.Topics[0].Topic)

	rec = s.do(http.MethodGet, "/api/students/amy/final", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decode[query.GetFinalResult](s.T(), rec).Questions, len(quiz.SeedBank().FinalExam()))

	rec = s.do(http.MethodGet, "/api/students/amy/export", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(`attachment; filename="Amy Pond_progress.json"`, rec.Header().Get("Content-Disposition"))
	s.Equal("Amy Pond", decode[progress.ExportDocument](s.T(), rec).Name)
}

func (s *ServerSuite) TestLeaderboard_BadLimit() {
	rec := s.do(http.MethodGet, "/api/leaderboard?limit=abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/leaderboard?limit=-1", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/nope", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("no-store", rec.Header().Get("Cache-Control"))
}

func TestClassify(t *testing.T) {
	status, msg := classify(shared.ErrEmptyTopic)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please choose a topic.", msg)

	status, _ = classify(shared.ErrStateNotFound)
	assert.Equal(t, http.StatusNotFound, status)

	status, msg = classify(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, strings.Contains(msg, "pq"))
}
