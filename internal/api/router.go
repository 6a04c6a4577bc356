package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/wfunc/pin-lock/internal/controller"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/middleware"
	"github.com/wfunc/pin-lock/internal/models"
	"github.com/wfunc/pin-lock/internal/repository"
	"github.com/wfunc/pin-lock/internal/utils"
	"github.com/wfunc/pin-lock/internal/websocket"
	"go.uber.org/zap"
)

// StatusProvider 状态来源（控制循环）
type StatusProvider interface {
	Snapshot() lock.Snapshot
	Stats() controller.Stats
}

// EventStore 审计事件查询
type EventStore interface {
	List(ctx context.Context, query *models.AccessEventQuery) ([]*models.AccessEvent, *repository.Pagination, error)
	FindByEventID(ctx context.Context, eventID string) (*models.AccessEvent, error)
}

// Router 诊断接口路由器
type Router struct {
	engine   *gin.Engine
	status   StatusProvider
	events   EventStore // 可为 nil
	hub      *websocket.Hub
	auth     *middleware.AuthMiddleware
	upgrader gorillaws.Upgrader
	version  string
	log      *zap.Logger
}

// Options 路由依赖
type Options struct {
	Status  StatusProvider
	Events  EventStore
	Hub     *websocket.Hub
	JWT     *utils.JWTManager
	Mode    string
	Version string
	Logger  *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(opts Options) *Router {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(opts.Logger))
	engine.Use(middleware.RequestLogger(opts.Logger))

	r := &Router{
		engine:  engine,
		status:  opts.Status,
		events:  opts.Events,
		hub:     opts.Hub,
		auth:    middleware.NewAuthMiddleware(opts.JWT),
		version: opts.Version,
		log:     opts.Logger,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 诊断接口默认只监听本机，认证由令牌完成
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r.setupRoutes()
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.auth.RequireScope(utils.ScopeRead))
	{
		v1.GET("/status", r.getStatus)
		v1.GET("/stats", r.getStats)
		v1.GET("/menu", r.getMenu)

		events := v1.Group("/events")
		{
			events.GET("", r.listEvents)
			events.GET("/:id", r.getEvent)
		}
	}

	ws := r.engine.Group("/ws")
	ws.Use(r.auth.RequireScope(utils.ScopeRead))
	{
		ws.GET("/status", r.handleWebSocket)
	}
}

// Engine 获取Gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// ServeHTTP 实现 http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
