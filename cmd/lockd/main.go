package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wfunc/pin-lock/internal/api"
	"github.com/wfunc/pin-lock/internal/config"
	"github.com/wfunc/pin-lock/internal/controller"
	"github.com/wfunc/pin-lock/internal/database"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/hardware"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/logger"
	"github.com/wfunc/pin-lock/internal/repository"
	"github.com/wfunc/pin-lock/internal/service"
	"github.com/wfunc/pin-lock/internal/storage"
	"github.com/wfunc/pin-lock/internal/utils"
	"github.com/wfunc/pin-lock/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// diagTokenExpiry 诊断令牌有效期
const diagTokenExpiry = 24 * time.Hour

// Server 锁控服务实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *gorm.DB
	medium  storage.Medium
	panel   hardware.Panel
	console *hardware.Console
	closer  io.Closer // 串口面板

	audit   *service.AuditService
	hub     *websocket.Hub
	machine *lock.Machine
	ctrl    *controller.Controller
	diag    *api.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		mode        = flag.String("mode", "", "硬件模式（console/serial/mock），覆盖配置文件")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pin-lock %s (build %s, commit %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()
	if *mode != "" {
		cfg.Hardware.Mode = *mode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	server := NewServer(ctx, cfg)

	// 交互模式下日志写入readline，避免打断输入行
	var consoleOut io.Writer = os.Stdout
	if cfg.Hardware.Mode == "console" {
		console, err := hardware.NewConsole(cfg.Lock.DisplayRows, cfg.Lock.DisplayCols)
		if err != nil {
			fmt.Printf("初始化终端面板失败: %v\n", err)
			os.Exit(1)
		}
		server.console = console
		consoleOut = console.Stdout()
	}

	if err := logger.InitWithConsole(&cfg.Log, consoleOut); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()
	server.logger = logger.GetLogger()

	if err := server.Start(); err != nil {
		logger.Error("服务启动失败", zap.Error(err))
		server.Shutdown()
		os.Exit(1)
	}

	<-server.ctx.Done()
	logger.Info("收到退出信号")

	server.Shutdown()
	logger.Info("服务已安全关闭")
}

// NewServer 创建服务实例
func NewServer(parent context.Context, cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(parent)
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 初始化组件并启动后台任务
func (s *Server) Start() error {
	s.logger.Info("正在启动锁控服务...",
		zap.String("version", Version),
		zap.String("hardware", s.cfg.Hardware.Mode),
		zap.String("storage", s.cfg.Storage.Backend))

	if err := s.initDatabase(); err != nil {
		return err
	}
	if err := s.initStorage(); err != nil {
		return err
	}
	if err := s.initPanel(); err != nil {
		return err
	}
	if err := s.initLock(); err != nil {
		return err
	}
	s.startServices()

	// 监听配置变化，只有日志级别支持热更新
	config.Watch(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("配置已更新", zap.String("log_level", logger.Level()))
	})

	s.logger.Info("锁控服务启动成功", zap.String("state", s.machine.State().String()))
	return nil
}

// initDatabase 审计或数据库存储需要数据库
func (s *Server) initDatabase() error {
	if !s.cfg.Audit.Enabled && s.cfg.Storage.Backend != "database" {
		return nil
	}

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	s.db = database.GetDB()

	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(s.db, &s.cfg.Database, logger.WithModule("database")); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}
	return nil
}

func (s *Server) initStorage() error {
	medium, err := storage.Open(&s.cfg.Storage, s.db, lock.RecordSize)
	if err != nil {
		return err
	}
	s.medium = medium
	return nil
}

// initPanel 按硬件模式创建面板
func (s *Server) initPanel() error {
	rows, cols := s.cfg.Lock.DisplayRows, s.cfg.Lock.DisplayCols

	switch s.cfg.Hardware.Mode {
	case "console":
		if s.console == nil {
			console, err := hardware.NewConsole(rows, cols)
			if err != nil {
				return err
			}
			s.console = console
		}
		s.panel = s.console
	case "serial":
		panel, err := hardware.Open(&s.cfg.Hardware, rows, cols)
		if err != nil {
			return err
		}
		s.panel = panel
		s.closer = panel
	case "mock":
		s.panel = hardware.NewMockPanel(rows, cols)
	default:
		return errors.Newf(errors.ErrConfigValidate, "不支持的硬件模式: %s", s.cfg.Hardware.Mode)
	}
	return nil
}

// initLock 启动状态机和控制循环
func (s *Server) initLock() error {
	hasher, err := lock.NewHasher(s.cfg.Lock.HashAlgorithm, s.cfg.Lock.HashSalt)
	if err != nil {
		return err
	}

	var events repository.AccessEventRepository
	if s.cfg.Audit.Enabled && s.db != nil {
		events = repository.NewAccessEventRepository(s.db)
	}
	s.audit = service.NewAuditService(events, nil)

	observers := lock.Observers{s.audit}
	if s.cfg.Diag.Enabled {
		s.hub = websocket.NewHub(logger.WithModule("websocket"))
		observers = append(observers, lock.ObserverFunc(func(e lock.Event) {
			s.hub.Publish(websocket.MessageTypeEvent, service.ToAccessEvent(e))
		}))
	}

	s.machine = lock.Boot(s.medium, s.cfg.Storage.Address, lock.Options{
		Hasher:         hasher,
		Display:        s.panel,
		Relay:          s.panel,
		Observer:       observers,
		Logger:         logger.WithModule("lock"),
		NoticeDuration: s.cfg.Lock.NoticeDuration,
	})

	s.ctrl = controller.New(s.machine, controller.Config{
		Keypad:       s.panel,
		Reset:        s.panel,
		Medium:       s.medium,
		Address:      s.cfg.Storage.Address,
		TickInterval: s.cfg.Lock.TickInterval,
	})

	if s.hub != nil {
		s.ctrl.Subscribe(func(snap lock.Snapshot) {
			s.hub.Publish(websocket.MessageTypeStatus, snap)
		})
		s.hub.SetWelcome(func() *websocket.Message {
			msg, _ := websocket.NewMessage(websocket.MessageTypeStatus, s.ctrl.Snapshot())
			return msg
		})
	}
	return nil
}

// startServices 启动后台任务
func (s *Server) startServices() {
	s.goRun(func() {
		if err := s.ctrl.Run(s.ctx); err != nil && err != context.Canceled {
			s.logger.Error("控制循环异常退出", zap.Error(err))
		}
	})

	if s.console != nil {
		s.goRun(func() { s.console.Run(s.ctx, s.cancel) })
	}

	if !s.cfg.Diag.Enabled {
		return
	}

	s.goRun(func() { s.hub.Run(s.ctx) })

	var jwt *utils.JWTManager
	if s.cfg.Diag.JWTSecret != "" {
		jwt = utils.NewJWTManager(s.cfg.Diag.JWTSecret, diagTokenExpiry)
	}

	var events api.EventStore
	if s.cfg.Audit.Enabled && s.db != nil {
		events = repository.NewAccessEventRepository(s.db)
	}

	router := api.NewRouter(api.Options{
		Status:  s.ctrl,
		Events:  events,
		Hub:     s.hub,
		JWT:     jwt,
		Mode:    s.cfg.Diag.Mode,
		Version: Version,
		Logger:  logger.WithModule("api"),
	})
	s.diag = api.NewServer(&s.cfg.Diag, router, logger.WithModule("api"))
	s.goRun(func() {
		if err := s.diag.Run(s.ctx); err != nil {
			s.logger.Error("诊断接口异常退出", zap.Error(err))
		}
	})
}

func (s *Server) goRun(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Shutdown 停止后台任务并关闭组件
func (s *Server) Shutdown() {
	s.logger.Info("正在关闭锁控服务...")
	s.cancel()

	// 关闭readline使阻塞中的输入返回
	if s.console != nil {
		_ = s.console.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.Diag.ShutdownTimeout + time.Second):
		s.logger.Warn("等待后台任务超时")
	}

	if s.audit != nil {
		s.audit.Close()
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.logger.Error("关闭面板失败", zap.Error(err))
		}
	}
	if s.medium != nil {
		if err := s.medium.Close(); err != nil {
			s.logger.Error("关闭存储失败", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}
}
