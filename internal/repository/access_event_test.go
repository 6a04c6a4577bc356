package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/models"
	"gorm.io/gorm"
)

// AccessEventRepositoryTestSuite 审计事件仓储测试套件
type AccessEventRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo AccessEventRepository
	ctx  context.Context
	base time.Time
}

func (suite *AccessEventRepositoryTestSuite) SetupSuite() {
	suite.db = SetupTestDB()
	suite.repo = NewAccessEventRepository(suite.db)
	suite.ctx = context.Background()
	suite.base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
}

func (suite *AccessEventRepositoryTestSuite) TearDownSuite() {
	CleanupTestDB(suite.db)
}

func (suite *AccessEventRepositoryTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM access_events")
}

func (suite *AccessEventRepositoryTestSuite) event(kind string, offset time.Duration) *models.AccessEvent {
	return &models.AccessEvent{
		Kind:       kind,
		FromState:  "locked",
		ToState:    "locked",
		OccurredAt: suite.base.Add(offset),
	}
}

func (suite *AccessEventRepositoryTestSuite) TestCreate() {
	event := suite.event("failed_attempt", 0)
	event.FailCount = 1

	suite.Require().NoError(suite.repo.Create(suite.ctx, event))
	suite.NotZero(event.ID)
	suite.Len(event.EventID, 36, "自动生成UUID")

	found, err := suite.repo.FindByEventID(suite.ctx, event.EventID)
	suite.Require().NoError(err)
	suite.Equal("failed_attempt", found.Kind)
	suite.Equal(1, found.FailCount)
}

func (suite *AccessEventRepositoryTestSuite) TestCreateFillsOccurredAt() {
	event := &models.AccessEvent{Kind: "unlocked"}
	suite.Require().NoError(suite.repo.Create(suite.ctx, event))
	suite.False(event.OccurredAt.IsZero())
}

func (suite *AccessEventRepositoryTestSuite) TestFindByEventID_NotFound() {
	_, err := suite.repo.FindByEventID(suite.ctx, "missing")
	suite.True(errors.Is(err, errors.ErrNotFound))
}

func (suite *AccessEventRepositoryTestSuite) TestList() {
	events := []*models.AccessEvent{
		suite.event("failed_attempt", 1*time.Minute),
		suite.event("failed_attempt", 2*time.Minute),
		suite.event("lockout", 3*time.Minute),
		suite.event("lockout_ended", 4*time.Minute),
		suite.event("unlocked", 5*time.Minute),
	}
	suite.Require().NoError(suite.repo.BatchCreate(suite.ctx, events))

	// 全部，最新的在前
	list, page, err := suite.repo.List(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(5), page.Total)
	suite.Require().Len(list, 5)
	suite.Equal("unlocked", list[0].Kind)

	// 按类型
	list, page, err = suite.repo.List(suite.ctx, &models.AccessEventQuery{Kind: "failed_attempt"})
	suite.Require().NoError(err)
	suite.Equal(int64(2), page.Total)
	suite.Len(list, 2)

	// 时间过滤 + 分页
	since := suite.base.Add(3 * time.Minute)
	list, page, err = suite.repo.List(suite.ctx, &models.AccessEventQuery{Since: &since, Page: 2, PageSize: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(3), page.Total)
	suite.Require().Len(list, 1)
	suite.Equal("lockout", list[0].Kind)
}

func (suite *AccessEventRepositoryTestSuite) TestCountAndPrune() {
	suite.Require().NoError(suite.repo.BatchCreate(suite.ctx, []*models.AccessEvent{
		suite.event("failed_attempt", -48*time.Hour),
		suite.event("failed_attempt", 0),
		suite.event("failed_attempt", time.Hour),
	}))

	count, err := suite.repo.CountByKind(suite.ctx, "failed_attempt", suite.base)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)

	removed, err := suite.repo.Prune(suite.ctx, suite.base.Add(-24*time.Hour))
	suite.Require().NoError(err)
	suite.Equal(int64(1), removed)

	_, page, err := suite.repo.List(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Equal(int64(2), page.Total)
}

func (suite *AccessEventRepositoryTestSuite) TestBatchCreateEmpty() {
	suite.NoError(suite.repo.BatchCreate(suite.ctx, nil))
}

func TestAccessEventRepositorySuite(t *testing.T) {
	suite.Run(t, new(AccessEventRepositoryTestSuite))
}
