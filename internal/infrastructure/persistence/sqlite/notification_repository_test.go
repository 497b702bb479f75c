package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/sqlite"
	"github.com/roshankumarc210506-arch/learnsphere/internal/testutil"
)

type NotificationRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo *sqlite.NotificationRepository
}

func (s *NotificationRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewNotificationRepository(s.db)
}

func (s *NotificationRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *NotificationRepositorySuite) TestAppendAndList() {
	ctx := context.Background()
	t := s.T()

	first := testutil.Notification(t, "amy", "first", created)
	second := testutil.Notification(t, "amy", "second", created.Add(time.Minute))
	other := testutil.Notification(t, "bob", "other", created)

	s.Require().NoError(s.repo.Append(ctx, first, second, other))
	// повторная вставка игнорируется
	s.Require().NoError(s.repo.Append(ctx, first))

	list, err := s.repo.List(ctx, "amy", 0)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Assert().Equal("second", list[0].Message)
	s.Assert().Equal("first", list[1].Message)
	s.Assert().Equal(first.ID, list[1].ID)
	s.Assert().True(first.Timestamp.Equal(list[1].Timestamp))
	s.Assert().False(list[0].Read)

	limited, err := s.repo.List(ctx, "amy", 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Assert().Equal("second", limited[0].Message)
}

func (s *NotificationRepositorySuite) TestAppend_Empty() {
	s.Assert().NoError(s.repo.Append(context.Background()))
}

func (s *NotificationRepositorySuite) TestMarkAllRead() {
	ctx := context.Background()
	t := s.T()

	s.Require().NoError(s.repo.Append(ctx,
		testutil.Notification(t, "amy", "a", created),
		testutil.Notification(t, "amy", "b", created),
		testutil.Notification(t, "bob", "c", created),
	))

	n, err := s.repo.MarkAllRead(ctx, "amy")
	s.Require().NoError(err)
	s.Assert().Equal(2, n)

	n, err = s.repo.MarkAllRead(ctx, "amy")
	s.Require().NoError(err)
	s.Assert().Equal(0, n)

	list, err := s.repo.List(ctx, "bob", 0)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Assert().False(list[0].Read)
}

func (s *NotificationRepositorySuite) TestPrune() {
	ctx := context.Background()
	t := s.T()

	old := testutil.Notification(t, "amy", "old", created.AddDate(0, 0, -40))
	s.Require().NoError(s.repo.Append(ctx, old))
	for i := 0; i < 4; i++ {
		s.Require().NoError(s.repo.Append(ctx,
			testutil.Notification(t, "amy", "recent", created.Add(time.Duration(i)*time.Minute))))
	}
	s.Require().NoError(s.repo.Append(ctx, testutil.Notification(t, "bob", "bob", created)))

	removed, err := s.repo.Prune(ctx, created.AddDate(0, 0, -30), 3)
	s.Require().NoError(err)
	s.Assert().Equal(2, removed)

	amy, err := s.repo.List(ctx, "amy", 0)
	s.Require().NoError(err)
	s.Assert().Len(amy, 3)

	bob, err := s.repo.List(ctx, "bob", 0)
	s.Require().NoError(err)
	s.Assert().Len(bob, 1)
}

func (s *NotificationRepositorySuite) TestPrune_NoLimits() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Append(ctx, testutil.Notification(s.T(), "amy", "old", created.AddDate(-1, 0, 0))))

	removed, err := s.repo.Prune(ctx, time.Time{}, 0)
	s.Require().NoError(err)
	s.Assert().Zero(removed)
}

func TestNotificationRepositorySuite(t *testing.T) {
	suite.Run(t, new(NotificationRepositorySuite))
}
