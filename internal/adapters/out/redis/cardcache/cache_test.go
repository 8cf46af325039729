package cardcache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ekanban/internal/adapters/out/redis/cardcache"
	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type MockCards struct{ mock.Mock }

func (m *MockCards) Get(ctx context.Context, id string) (*card.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.Card), args.Error(1)
}

func (m *MockCards) Upsert(ctx context.Context, cards []*card.Card) error {
	args := m.Called(ctx, cards)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCard(t require.TestingT, description string) *card.Card {
	c, err := card.NewCard("MAT-001", "PN-100", description, "Bobinado 1", decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	return c
}

func TestRegistry_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	backend := new(MockCards)
	backend.On("Get", mock.Anything, "MAT-001").Return(newCard(t, "Copper wire"), nil).Once()

	registry := cardcache.NewRegistry(client, backend, backend, time.Minute, discardLogger())
	found, err := registry.Get(t.Context(), "mat-001")

	require.NoError(t, err)
	require.Equal(t, "Copper wire", found.Description())
	backend.AssertExpectations(t)
}

// RegistryIntegrationTestSuite runs the cache against a real Redis container.
type RegistryIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
}

func (suite *RegistryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	endpoint, err := container.Endpoint(ctx, "")
	suite.Require().NoError(err)

	suite.client = redis.NewClient(&redis.Options{Addr: endpoint})
	suite.Require().NoError(cardcache.Ping(ctx, suite.client))
}

func (suite *RegistryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.client.FlushAll(context.Background()).Err())
}

func (suite *RegistryIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		_ = suite.client.Close()
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RegistryIntegrationTestSuite) TestGet_SecondLookupIsServedFromCache() {
	ctx := context.Background()
	backend := new(MockCards)
	backend.On("Get", mock.Anything, "MAT-001").Return(newCard(suite.T(), "Copper wire"), nil).Once()
	registry := cardcache.NewRegistry(suite.client, backend, backend, time.Minute, discardLogger())

	first, err := registry.Get(ctx, "MAT-001")
	suite.Require().NoError(err)
	second, err := registry.Get(ctx, "MAT-001")
	suite.Require().NoError(err)

	suite.Equal(first.Description(), second.Description())
	suite.True(decimal.RequireFromString("2.5").Equal(second.StandardPack()))
	backend.AssertExpectations(suite.T())

	ttl, err := suite.client.TTL(ctx, "ekanban:card:MAT-001").Result()
	suite.Require().NoError(err)
	suite.Positive(ttl)
}

func (suite *RegistryIntegrationTestSuite) TestGet_MissesAreNotCached() {
	ctx := context.Background()
	backend := new(MockCards)
	backend.On("Get", mock.Anything, "MAT-999").Return(nil, errs.NewObjectNotFoundError("card", "MAT-999")).Twice()
	registry := cardcache.NewRegistry(suite.client, backend, backend, time.Minute, discardLogger())

	for range 2 {
		_, err := registry.Get(ctx, "MAT-999")
		suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	}
	backend.AssertExpectations(suite.T())
}

func (suite *RegistryIntegrationTestSuite) TestUpsert_EvictsCachedCard() {
	ctx := context.Background()
	backend := new(MockCards)
	backend.On("Get", mock.Anything, "MAT-001").Return(newCard(suite.T(), "Copper wire"), nil).Once()
	backend.On("Get", mock.Anything, "MAT-001").Return(newCard(suite.T(), "Enamelled copper wire"), nil).Once()
	backend.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()
	registry := cardcache.NewRegistry(suite.client, backend, backend, time.Minute, discardLogger())

	_, err := registry.Get(ctx, "MAT-001")
	suite.Require().NoError(err)
	suite.Require().NoError(registry.Upsert(ctx, []*card.Card{newCard(suite.T(), "Enamelled copper wire")}))

	found, err := registry.Get(ctx, "MAT-001")
	suite.Require().NoError(err)
	suite.Equal("Enamelled copper wire", found.Description())
	backend.AssertExpectations(suite.T())
}

func TestRegistryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(RegistryIntegrationTestSuite))
}
