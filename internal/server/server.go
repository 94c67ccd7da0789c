package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/ahmaddaku97-design/Aim/internal/auth"
	"github.com/ahmaddaku97-design/Aim/internal/cache"
	"github.com/ahmaddaku97-design/Aim/internal/database/mongodb"
	"github.com/ahmaddaku97-design/Aim/internal/feed"
	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/monitoring"
	"github.com/ahmaddaku97-design/Aim/internal/mq"
	"github.com/ahmaddaku97-design/Aim/internal/security"
	"github.com/ahmaddaku97-design/Aim/internal/service"
	"github.com/ahmaddaku97-design/Aim/internal/storage"
)

// ServerConfig 服务配置
type ServerConfig struct {
	Server struct {
		Name     string `mapstructure:"name"`
		Version  string `mapstructure:"version"`
		Debug    bool   `mapstructure:"debug"`
		HTTPPort int    `mapstructure:"http_port"`
	} `mapstructure:"server"`

	Redis   cache.RedisConfig     `mapstructure:"redis"`
	MongoDB mongodb.MongoConfig   `mapstructure:"mongodb"`
	NSQ     struct {
		Enabled bool `mapstructure:"enabled"`
		mq.NSQConfig `mapstructure:",squash"`
	} `mapstructure:"nsq"`

	Monitoring monitoring.MonitoringConfig `mapstructure:"monitoring"`
	Log        logger.LogConfig            `mapstructure:"log"`
}

// AppServer 应用服务器：组装存储、缓存、消息队列和各业务服务，对外提供HTTP接口
type AppServer struct {
	config *ServerConfig
	nodeID string

	// 组件依赖
	redisManager *cache.RedisManager
	mongoManager *mongodb.MongoManager
	nsqManager   *mq.NSQManager
	eventBroker  *mq.EventBroker
	monitor      *monitoring.MonitoringManager
	hub          *feed.Hub
	limiter      *security.RateLimitManager

	sessions         *cache.SessionCache
	presence         *cache.PresenceCache
	leaderboardCache *cache.LeaderboardCache
	verifier         auth.TokenVerifier
	provider         auth.Provider
	blobs            storage.BlobStore

	// 业务服务
	ledger      *service.Ledger
	streaks     *service.StreakTracker
	accounts    *service.AccountService
	withdrawals *service.WithdrawalWorkflow
	chat        *service.ChatService

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mutex  sync.Mutex
	status string
}

// NewAppServer 创建应用服务器
// provider/blobs 是外部协作方（身份提供方、对象存储），由部署方注入，可为nil
func NewAppServer(configFile, nodeID string, provider auth.Provider, blobs storage.BlobStore) (*AppServer, error) {
	config, err := loadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	// 初始化日志
	logger.InitGlobalLogger(&config.Log)

	ctx, cancel := context.WithCancel(context.Background())

	server := &AppServer{
		config:   config,
		nodeID:   nodeID,
		provider: provider,
		blobs:    blobs,
		status:   "initializing",
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := server.initComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to init components: %v", err)
	}

	logger.Infof("Server %s/%s initialized", config.Server.Name, nodeID)
	return server, nil
}

// loadConfig 加载yaml配置
func loadConfig(configFile string) (*ServerConfig, error) {
	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config ServerConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// initComponents 初始化组件
func (s *AppServer) initComponents() error {
	// 初始化Redis
	redisManager, err := cache.NewRedisManager(&s.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to init redis: %v", err)
	}
	s.redisManager = redisManager
	logger.Debug("Redis initialized")

	// 初始化MongoDB
	mongoManager, err := mongodb.NewMongoManager(&s.config.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to init mongodb: %v", err)
	}
	s.mongoManager = mongoManager
	logger.Debug("MongoDB initialized")

	// 初始化NSQ（可选，多节点部署和管理端提现队列用）
	if s.config.NSQ.Enabled {
		nsqManager, err := mq.NewNSQManager(&s.config.NSQ.NSQConfig)
		if err != nil {
			return fmt.Errorf("failed to init nsq: %v", err)
		}
		s.nsqManager = nsqManager
		s.eventBroker = mq.NewEventBroker(nsqManager, s.nodeID)
		logger.Debug("NSQ initialized")
	}

	// 初始化监控
	s.monitor = monitoring.NewMonitoringManager(&s.config.Monitoring, s.nodeID)

	// 会话、在线状态、限流、订阅中心
	s.sessions = cache.NewSessionCache(redisManager)
	s.presence = cache.NewPresenceCache(redisManager)
	s.leaderboardCache = cache.NewLeaderboardCache(redisManager)
	s.verifier = auth.NewSessionVerifier(s.sessions)
	s.limiter = security.NewRateLimitManager()
	s.hub = feed.NewHub()

	// 数据仓库
	userRepo := mongodb.NewUserRepository(mongoManager)
	roomRepo := mongodb.NewRoomRepository(mongoManager)
	messageRepo := mongodb.NewMessageRepository(mongoManager)
	withdrawalRepo := mongodb.NewWithdrawalRepository(mongoManager)

	// 业务服务
	metrics := s.monitor.Metrics()
	var events service.EventPublisher
	if s.eventBroker != nil {
		events = s.eventBroker
	}

	s.ledger = service.NewLedger(userRepo, s.hub, metrics)
	s.streaks = service.NewStreakTracker(userRepo, s.hub, metrics)
	referral := service.NewReferralEngine(userRepo, s.ledger)
	s.accounts = service.NewAccountService(userRepo, referral, s.presence, s.leaderboardCache, s.blobs, s.hub, metrics)
	s.withdrawals = service.NewWithdrawalWorkflow(userRepo, withdrawalRepo, s.ledger, events, metrics)
	s.chat = service.NewChatService(roomRepo, messageRepo, s.hub, s.limiter, events, metrics)

	// 订阅其他节点扩散的聊天消息
	if s.eventBroker != nil {
		handler := mq.NewChatEventHandler(s.nodeID, s.chat.HandleRemoteMessage)
		if err := s.eventBroker.SubscribeChatMessages(handler); err != nil {
			return fmt.Errorf("failed to subscribe chat events: %v", err)
		}
	}

	return nil
}

// Start 启动服务
func (s *AppServer) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.status != "initializing" {
		return fmt.Errorf("server already started")
	}

	if err := s.monitor.Start(); err != nil {
		return fmt.Errorf("failed to start monitoring: %v", err)
	}

	// 榜单变更（签到、注册）时失效缓存，下次拉取回源
	lbSub := s.hub.Subscribe(feed.TopicLeaderboard)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer lbSub.Cancel()
		for {
			select {
			case _, ok := <-lbSub.Events():
				if !ok {
					return
				}
				s.leaderboardCache.Invalidate()
			case <-s.ctx.Done():
				return
			}
		}
	}()

	// 活跃订阅量定时上报
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.monitor.Metrics().SetActiveFeeds(s.hub.Count())
			case <-s.ctx.Done():
				return
			}
		}
	}()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.HTTPPort),
		Handler: s.buildRouter(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	s.status = "running"
	logger.Infof("HTTP server started on :%d", s.config.Server.HTTPPort)
	return nil
}

// Stop 停止服务，释放组件
func (s *AppServer) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.status != "running" {
		return nil
	}
	s.status = "stopping"

	s.cancel()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}

	s.limiter.StopCleanup()
	s.monitor.Stop()

	if s.nsqManager != nil {
		s.nsqManager.Close()
	}
	s.mongoManager.Close()
	s.redisManager.Close()

	s.wg.Wait()
	s.status = "stopped"
	logger.Info("Server stopped")
	return nil
}
