package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/sqlite"
	"github.com/roshankumarc210506-arch/learnsphere/internal/testutil"
)

var created = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

type ProgressRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo *sqlite.ProgressRepository
}

func (s *ProgressRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewProgressRepository(s.db)
}

func (s *ProgressRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ProgressRepositorySuite) TestLoad_NotFound() {
	_, err := s.repo.Load(context.Background(), "nobody")
	s.Assert().ErrorIs(err, shared.ErrStateNotFound)
}

func (s *ProgressRepositorySuite) TestSaveAndLoad() {
	ctx := context.Background()

	state := testutil.State("amy", created)
	state.Streak = 3
	state.LastLoginDate = "2024-01-10"
	state.QuizScores["Algebra"] = 0.75
	s.Require().NoError(s.repo.Save(ctx, state))

	loaded, err := s.repo.Load(ctx, "amy")
	s.Require().NoError(err)
	s.Assert().Equal("amy", loaded.Username)
	s.Assert().Equal(3, loaded.Streak)
	s.Assert().Equal("2024-01-10", loaded.LastLoginDate)
	s.Assert().InDelta(0.75, loaded.QuizScores["Algebra"], 1e-9)
}

func (s *ProgressRepositorySuite) TestSave_Upserts() {
	ctx := context.Background()

	state := testutil.State("amy", created)
	s.Require().NoError(s.repo.Save(ctx, state))

	state.Streak = 7
	state.Bookmarks = []string{"Geometry"}
	s.Require().NoError(s.repo.Save(ctx, state))

	var count int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT count(*) FROM progress_states`).Scan(&count))
	s.Assert().Equal(1, count)

	loaded, err := s.repo.Load(ctx, "amy")
	s.Require().NoError(err)
	s.Assert().Equal(7, loaded.Streak)
	s.Assert().Equal([]string{"Geometry"}, loaded.Bookmarks)
}

func (s *ProgressRepositorySuite) TestList_SkipsCorruptRows() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Save(ctx, testutil.State("bob", created)))
	s.Require().NoError(s.repo.Save(ctx, testutil.State("amy", created)))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_states (username, document, updated_at) VALUES (?, ?, ?)`,
		"zed", "not json", 0)
	s.Require().NoError(err)

	states, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(states, 2)
	s.Assert().Equal("amy", states[0].Username)
	s.Assert().Equal("bob", states[1].Username)
}

func TestProgressRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProgressRepositorySuite))
}
