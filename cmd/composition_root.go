package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"ekanban/internal/adapters/in/cardseed"
	httpin "ekanban/internal/adapters/in/http"
	kafkaout "ekanban/internal/adapters/out/kafka"
	"ekanban/internal/adapters/out/memory"
	"ekanban/internal/adapters/out/postgres"
	"ekanban/internal/adapters/out/postgres/cardrepo"
	"ekanban/internal/adapters/out/postgres/orderfeed"
	"ekanban/internal/adapters/out/postgres/orderrepo"
	metrics "ekanban/internal/adapters/out/prometheus"
	"ekanban/internal/adapters/out/redis/cardcache"
	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/application/usecases/commands"
	"ekanban/internal/core/application/usecases/queries"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/domain/services"
	"ekanban/internal/core/ports"
	"ekanban/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CompositionRoot owns every store handle and long-lived component. Handles
// are built here and passed down.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	clock  kernel.Clock

	uowFactory ports.UnitOfWorkFactory
	cards      ports.CardRegistry
	cardWriter ports.CardWriter
	feed       ports.ActiveOrdersFeed
	publisher  ports.OrderEventPublisher
	metrics    *metrics.Metrics
	locations  []string

	live       *projection.LiveProjection
	stream     *httpin.BoardStream
	jobManager *jobs.JobManager

	closers []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:       cfg,
		logger:    logger,
		clock:     kernel.SystemClock{},
		metrics:   metrics.New(),
		locations: slices.Clone(cfg.SiteLocations),
	}

	if err := c.openStore(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	c.openCardCache(ctx)
	c.openPublisher()

	if cfg.CardsSeedFile != "" {
		if err := c.seedCards(ctx); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}

	c.live = projection.NewLiveProjection(c.feed, c.locations, logger)
	c.stream = httpin.NewBoardStream(c.live, c.CreateGetBoardQueryHandler(), logger)
	c.jobManager = jobs.NewJobManager(
		jobs.NewUrgencySweepJob(c.live, c.metrics, c.clock, cfg.UrgencySweepSchedule, logger),
	)
	return c, nil
}

func (c *CompositionRoot) openStore(ctx context.Context) error {
	switch c.cfg.StoreDriver {
	case StoreDriverMemory:
		store := memory.NewStore(c.clock, c.logger)
		c.uowFactory, c.cards, c.cardWriter, c.feed = store, store, store, store
		c.logger.WarnContext(ctx, "Using the in-memory store, orders are lost on restart")
		return nil

	case StoreDriverPostgres:
		db, err := gorm.Open(gormpostgres.Open(c.cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		c.closers = append(c.closers, sqlDB.Close)

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}

		repo := cardrepo.NewGormCardRepository(db)
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
		c.cards, c.cardWriter = repo, repo
		c.feed = orderfeed.NewFeed(c.cfg.DSN(), postgres.ActiveOrdersChannel, orderrepo.NewGormOrderRepository(db), c.logger)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", c.cfg.StoreDriver)
	}
}

// openCardCache fronts the registry with redis when REDIS_ADDR is set. An
// unreachable redis is not fatal; lookups fall back to the store.
func (c *CompositionRoot) openCardCache(ctx context.Context) {
	if c.cfg.RedisAddr == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	})
	c.closers = append(c.closers, client.Close)

	if err := cardcache.Ping(ctx, client); err != nil {
		c.logger.WarnContext(ctx, "Card cache unreachable, continuing without it until it recovers",
			"addr", c.cfg.RedisAddr, "error", err)
	}

	registry := cardcache.NewRegistry(client, c.cards, c.cardWriter, c.cfg.CardCacheTTL, c.logger)
	c.cards, c.cardWriter = registry, registry
}

func (c *CompositionRoot) openPublisher() {
	var next ports.OrderEventPublisher = FuncPublisher(func(context.Context, order.ChangedEvent) error { return nil })
	if c.cfg.KafkaHost != "" {
		p := kafkaout.NewPublisher(kafkaout.NewWriter(c.cfg.KafkaHost, c.cfg.KafkaOrderChangedTopic))
		c.closers = append(c.closers, p.Close)
		next = p
	}
	c.publisher = c.metrics.CountingPublisher(next)
}

func (c *CompositionRoot) seedCards(ctx context.Context) error {
	seed, err := cardseed.LoadFile(c.cfg.CardsSeedFile)
	if err != nil {
		return fmt.Errorf("load card seed %s: %w", c.cfg.CardsSeedFile, err)
	}
	if err := cardseed.Apply(ctx, c.cardWriter, seed, c.logger); err != nil {
		return err
	}
	for _, l := range seed.Locations {
		if !slices.Contains(c.locations, l) {
			c.locations = append(c.locations, l)
		}
	}
	return nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() *commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.cards, c.orderUoWFactory(), c.publisher, c.logger)
}

func (c *CompositionRoot) CreateAdvanceOrderCommandHandler() commands.AdvanceOrderCommandHandler {
	return commands.NewAdvanceOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateGetBoardQueryHandler() queries.GetBoardQueryHandler {
	return queries.NewGetBoardQueryHandler(c.live, c.clock, c.cfg.DisplayTimezone)
}

func (c *CompositionRoot) CreateServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateAdvanceOrderCommandHandler(),
		c.CreateGetBoardQueryHandler(),
		services.NewScanSimulator(nil),
		c.stream,
		c.metrics.Handler(),
		c.logger,
	)
}

// RegisterRoutes mounts the configured role's API on e.
func (c *CompositionRoot) RegisterRoutes(e *echo.Echo) {
	e.Use(httpin.RequestMetrics(c.metrics))
	c.CreateServer().Register(e, c.cfg.Role)
}

// Start runs the dispatcher's live board. Operator terminals only write, so
// they hold no subscription.
func (c *CompositionRoot) Start(ctx context.Context) error {
	if c.cfg.Role != httpin.RoleDispatcher {
		return nil
	}

	if err := c.live.Start(ctx); err != nil {
		return fmt.Errorf("start live projection: %w", err)
	}
	c.live.OnChange(func(b projection.Board) { c.metrics.ObserveBoard(b, c.clock.Now()) })
	c.metrics.ObserveBoard(c.live.Board(), c.clock.Now())
	c.stream.Start()

	if err := c.jobManager.StartAll(); err != nil {
		c.stream.Stop()
		c.live.Stop()
		return err
	}
	return nil
}

// Stop ends streams, jobs and the subscription. It is safe after a failed
// or skipped Start.
func (c *CompositionRoot) Stop() {
	if c.cfg.Role != httpin.RoleDispatcher {
		return
	}
	c.stream.Stop()
	c.jobManager.StopAll()
	c.live.Stop()
}

// Close releases store, cache and broker handles in reverse order.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncPublisher func(ctx context.Context, evt order.ChangedEvent) error

func (f FuncPublisher) Publish(ctx context.Context, evt order.ChangedEvent) error {
	return f(ctx, evt)
}
