package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"ekanban/internal/adapters/out/postgres/orderrepo"
	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite runs the order repository against a
// real PostgreSQL container.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE active_orders").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) draft(location string) order.Draft {
	c, err := card.NewCard("MAT-001", "PN-100", "Copper wire", "Bobinado 1", decimal.RequireFromString("12.5"))
	suite.Require().NoError(err)
	d, err := order.NewDraft(c, location)
	suite.Require().NoError(err)
	return d
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_AssignsIdentityAndServerTimes() {
	ctx := context.Background()

	created, err := suite.repository.Add(ctx, suite.draft(""))
	suite.Require().NoError(err)

	suite.NoError(created.ID().Validate())
	suite.Equal(order.Pending, created.Status())
	suite.False(created.CreatedAt().IsZero())
	suite.True(created.CreatedAt().Equal(created.Timestamp()))
	suite.Nil(created.DispatchedAt())
	suite.Equal("Bobinado 1", created.Location())
	suite.True(decimal.RequireFromString("12.5").Equal(created.StandardPack()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_TwiceCreatesTwoOrders() {
	ctx := context.Background()

	first, err := suite.repository.Add(ctx, suite.draft(""))
	suite.Require().NoError(err)
	second, err := suite.repository.Add(ctx, suite.draft(""))
	suite.Require().NoError(err)

	suite.False(first.IsEqual(second))
	suite.assertOrderCount(2)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_NotConstructedDraft() {
	_, err := suite.repository.Add(context.Background(), order.Draft{})
	suite.Require().ErrorIs(err, order.ErrDraftIsNotConstructed)
	suite.assertOrderCount(0)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	retrieved, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Nil(retrieved)
	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_WalksTheLifecycle() {
	ctx := context.Background()
	created, err := suite.repository.Add(ctx, suite.draft(""))
	suite.Require().NoError(err)

	dispatch, err := order.NextStatus(order.Pending, order.InTransit)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, created.ID(), dispatch))

	inTransit, err := suite.repository.Get(ctx, created.ID())
	suite.Require().NoError(err)
	suite.Equal(order.InTransit, inTransit.Status())
	suite.Require().NotNil(inTransit.DispatchedAt())
	suite.Nil(inTransit.DeliveredAt())
	suite.True(created.Timestamp().Equal(inTransit.Timestamp()), "timestamp is never reassigned")
	suite.Equal(created.PartNumber(), inTransit.PartNumber())

	deliver, err := order.NextStatus(order.InTransit, order.Delivered)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, created.ID(), deliver))

	delivered, err := suite.repository.Get(ctx, created.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Delivered, delivered.Status())
	suite.True(inTransit.DispatchedAt().Equal(*delivered.DispatchedAt()))
	suite.NotNil(delivered.DeliveredAt())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_StaleFromIsRejected() {
	ctx := context.Background()
	created, err := suite.repository.Add(ctx, suite.draft(""))
	suite.Require().NoError(err)

	dispatch, _ := order.NextStatus(order.Pending, order.InTransit)
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, created.ID(), dispatch))

	err = suite.repository.UpdateStatus(ctx, created.ID(), dispatch)
	suite.Require().ErrorIs(err, ports.ErrStaleStatus)

	current, err := suite.repository.Get(ctx, created.ID())
	suite.Require().NoError(err)
	suite.Equal(order.InTransit, current.Status())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateStatus_UnknownOrder() {
	dispatch, _ := order.NextStatus(order.Pending, order.InTransit)

	err := suite.repository.UpdateStatus(context.Background(), kernel.NewUUID(), dispatch)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllActive_FiltersAndSortsNewestFirst() {
	ctx := context.Background()
	var ids []kernel.UUID
	for _, loc := range []string{"A", "B", "C"} {
		created, err := suite.repository.Add(ctx, suite.draft(loc))
		suite.Require().NoError(err)
		ids = append(ids, created.ID())
		// now() is the transaction start; separate statements need distinct times.
		time.Sleep(10 * time.Millisecond)
	}

	dispatch, _ := order.NextStatus(order.Pending, order.InTransit)
	deliver, _ := order.NextStatus(order.InTransit, order.Delivered)
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, ids[0], dispatch))
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, ids[0], deliver))
	suite.Require().NoError(suite.repository.UpdateStatus(ctx, ids[1], dispatch))

	active, err := suite.repository.GetAllActive(ctx)
	suite.Require().NoError(err)

	suite.Require().Len(active, 2)
	suite.Equal(ids[2], active[0].ID())
	suite.Equal(order.Pending, active[0].Status())
	suite.Equal(ids[1], active[1].ID())
	suite.Equal(order.InTransit, active[1].Status())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllActive_Empty() {
	active, err := suite.repository.GetAllActive(context.Background())
	suite.Require().NoError(err)
	suite.Empty(active)
}

func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int64) {
	var count int64
	suite.Require().NoError(suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error)
	suite.Equal(expected, count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
