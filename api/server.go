package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"auctionhub/adapters/notification"
	"auctionhub/adapters/postgres"
	redisAdapter "auctionhub/adapters/redis"
	"auctionhub/adapters/sse"
	"auctionhub/bidding"
)

// Server 組裝競標引擎與其外部依賴
type Server struct {
	db          *gorm.DB
	redisClient *redis.Client

	sseManager     sse.IConnectionManager[bidding.Event, bidding.View]
	sseProducer    redisAdapter.IProducer[sse.PublishRequest[bidding.Event]]
	sseConsumer    redisAdapter.IConsumer[sse.PublishRequest[bidding.Event]]
	notifyProducer *redisAdapter.Producer[notification.Message]
	notifyWorker   *notification.Worker

	coordinator *bidding.Coordinator
	sweeper     *bidding.Sweeper
	handlers    *Handlers

	mu      sync.Mutex
	started bool
	logger  *slog.Logger
	config  ServerConfig
}

func NewServer(config ServerConfig) (*Server, error) {
	const op = "NewServer"
	logger := slog.Default()

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}

	// 初始化Redis連線
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	server, err := newServer(config, db, redisClient, logger)
	if err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("[%s] Fail to assemble server, err=%w", op, err)
	}
	return server, nil
}

// newServer 以已建立的連線組裝所有元件
func newServer(config ServerConfig, db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) (*Server, error) {
	store, err := postgres.NewStore(db)
	if err != nil {
		return nil, err
	}

	// 拍賣鎖
	var locker bidding.Locker
	switch config.Engine.Locker {
	case LockerRedis:
		locker, err = redisAdapter.NewAuctionLocker(redisClient, config.Redis.KeyPrefix,
			redisAdapter.WithAuctionLockerLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("fail to create auction locker, err=%w", err)
		}
	case LockerLocal, "":
		locker = bidding.NewKeyedMutex()
	default:
		return nil, fmt.Errorf("unknown locker backend: %q", config.Engine.Locker)
	}

	// 快照快取
	cacheOpts := []redisAdapter.SnapshotCacheOption{redisAdapter.WithSnapshotCachePrefix(config.Redis.KeyPrefix)}
	if config.Redis.SnapshotTTL > 0 {
		cacheOpts = append(cacheOpts, redisAdapter.WithSnapshotCacheTTL(config.Redis.SnapshotTTL))
	}
	cache, err := redisAdapter.NewSnapshotCache(redisClient, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("fail to create snapshot cache, err=%w", err)
	}

	// 初始化SSE管理器，事件經由Redis stream送到每個實例
	sseProducer, err := redisAdapter.NewProducer[sse.PublishRequest[bidding.Event]](
		redisClient,
		config.Redis.StreamKeys.SSE,
		redisAdapter.WithProducerLogger[sse.PublishRequest[bidding.Event]](logger),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create sse producer, err=%w", err)
	}
	sseConsumer, err := redisAdapter.NewConsumer[sse.PublishRequest[bidding.Event]](
		redisClient,
		config.Redis.StreamKeys.SSE,
		redisAdapter.WithConsumerLogger[sse.PublishRequest[bidding.Event]](logger),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create sse consumer, err=%w", err)
	}
	sseManager, err := sse.NewConnectionManager[bidding.Event, bidding.View](
		bidding.RenderView,
		sse.WithLogger[bidding.Event, bidding.View](logger),
		sse.WithPublisher[bidding.Event, bidding.View](sseProducer),
		sse.WithSubscriber[bidding.Event, bidding.View](sseConsumer),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create sse connection manager, err=%w", err)
	}
	broadcaster, err := bidding.NewBroadcaster(sseManager, store, bidding.WithBroadcasterLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("fail to create broadcaster, err=%w", err)
	}

	// 結標通知
	notifyProducer, err := redisAdapter.NewProducer[notification.Message](
		redisClient,
		config.Redis.StreamKeys.Notification,
		redisAdapter.WithProducerLogger[notification.Message](logger),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create notification producer, err=%w", err)
	}
	notifier, err := notification.NewStreamNotifier(notifyProducer, notification.WithNotifierLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("fail to create notifier, err=%w", err)
	}
	groupConsumer, err := redisAdapter.NewGroupConsumer[notification.Message](
		redisClient,
		config.Redis.StreamKeys.Notification,
		config.Redis.ConsumerGroup,
		config.ID,
		redisAdapter.WithGroupConsumerLogger[notification.Message](logger),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create notification consumer, err=%w", err)
	}
	notifyWorker, err := notification.NewWorker(groupConsumer, notification.NewLogMailer(logger),
		notification.WithWorkerLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("fail to create notification worker, err=%w", err)
	}

	// 競標引擎
	coordinatorOpts := []bidding.CoordinatorOption{
		bidding.WithCoordinatorLogger(logger),
		bidding.WithCoordinatorSnapshotCache(cache),
	}
	if config.Engine.LockTimeout > 0 {
		coordinatorOpts = append(coordinatorOpts, bidding.WithCoordinatorLockTimeout(config.Engine.LockTimeout))
	}
	if config.Engine.CommitTimeout > 0 {
		coordinatorOpts = append(coordinatorOpts, bidding.WithCoordinatorCommitTimeout(config.Engine.CommitTimeout))
	}
	coordinator, err := bidding.NewCoordinator(store, locker, broadcaster, notifier, coordinatorOpts...)
	if err != nil {
		return nil, fmt.Errorf("fail to create coordinator, err=%w", err)
	}

	sweeperOpts := []bidding.SweeperOption{
		bidding.WithSweeperLogger(logger),
		bidding.WithSweeperSnapshotCache(cache),
	}
	if config.Engine.SweepInterval > 0 {
		sweeperOpts = append(sweeperOpts, bidding.WithSweeperInterval(config.Engine.SweepInterval))
	}
	if config.Engine.SweepGrace > 0 {
		sweeperOpts = append(sweeperOpts, bidding.WithSweeperGrace(config.Engine.SweepGrace))
	}
	if config.Engine.LockTimeout > 0 {
		sweeperOpts = append(sweeperOpts, bidding.WithSweeperLockTimeout(config.Engine.LockTimeout))
	}
	sweeper, err := bidding.NewSweeper(store, locker, broadcaster, notifier, sweeperOpts...)
	if err != nil {
		return nil, fmt.Errorf("fail to create sweeper, err=%w", err)
	}

	// HTTP
	auth, err := NewAuthenticator(config.Auth)
	if err != nil {
		return nil, fmt.Errorf("fail to create authenticator, err=%w", err)
	}
	handlerOpts := []HandlersOption{
		WithHandlersLogger(logger),
		WithHandlersSnapshotCache(cache),
	}
	if config.Engine.KeepAlive > 0 {
		handlerOpts = append(handlerOpts, WithHandlersKeepAlive(config.Engine.KeepAlive))
	}
	handlers, err := NewHandlers(coordinator, broadcaster, store, auth, handlerOpts...)
	if err != nil {
		return nil, fmt.Errorf("fail to create handlers, err=%w", err)
	}

	return &Server{
		db:             db,
		redisClient:    redisClient,
		sseManager:     sseManager,
		sseProducer:    sseProducer,
		sseConsumer:    sseConsumer,
		notifyProducer: notifyProducer,
		notifyWorker:   notifyWorker,
		coordinator:    coordinator,
		sweeper:        sweeper,
		handlers:       handlers,
		logger:         logger.With(slog.String("caller", "Server")),
		config:         config,
	}, nil
}

// Router 建立 gin 路由
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	s.handlers.Register(router)
	return router
}

func (s *Server) Start() error {
	const op = "Server.Start"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	// 啟動SSE的stream producer和consumer
	s.sseProducer.Start()
	s.sseConsumer.Start()
	// 啟動sse connection manager
	s.sseManager.Start()
	// 啟動通知worker
	if err := s.notifyWorker.Start(); err != nil {
		return fmt.Errorf("[%s] Fail to start notification worker, err=%w", op, err)
	}
	// 啟動結標掃描
	s.sweeper.Start()
	s.started = true
	s.logger.Info("Server started", slog.String("id", s.config.ID))
	return nil
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	// 先停止產生事件的元件
	s.sweeper.Close()
	s.notifyWorker.Close()
	s.notifyProducer.Close()
	// 關閉consumer
	s.sseConsumer.Close()
	// 關閉sse connection manager
	s.sseManager.Done()
	s.sseProducer.Close()

	if err := s.redisClient.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		s.logger.Error("Fail to close redis client", slog.Any("error", err))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error("Fail to close database", slog.Any("error", err))
		}
	}
	s.logger.Info("Server closed")
}

// SweepOnce 立即執行一次結標掃描
func (s *Server) SweepOnce(ctx context.Context) (bidding.SweepReport, error) {
	return s.sweeper.SweepOnce(ctx)
}
