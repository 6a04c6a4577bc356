package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wfunc/pin-lock/internal/config"
	"github.com/wfunc/pin-lock/internal/errors"
	"go.uber.org/zap"
)

// Server 诊断HTTP服务
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	log             *zap.Logger
}

// NewServer 创建诊断服务
func NewServer(cfg *config.DiagConfig, router *Router, log *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run 启动服务直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("诊断接口启动", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, errors.ErrUnknown, "诊断接口监听 %s 失败", s.httpServer.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("诊断接口关闭超时", zap.Error(err))
		return errors.Wrap(err, errors.ErrTimeout)
	}
	s.log.Info("诊断接口已关闭")
	return nil
}
