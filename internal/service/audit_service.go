package service

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/logger"
	"github.com/wfunc/pin-lock/internal/models"
	"github.com/wfunc/pin-lock/internal/repository"
	"go.uber.org/zap"
)

// AuditConfig 审计服务配置
type AuditConfig struct {
	FlushInterval time.Duration // 批量写入周期
	BatchSize     int           // 缓冲达到该数量立即写入
	QueueSize     int           // 待写入队列长度，满时丢弃
}

// DefaultAuditConfig 默认配置
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		FlushInterval: 5 * time.Second,
		BatchSize:     50,
		QueueSize:     1000,
	}
}

// AuditService 锁控事件审计
//
// 实现 lock.Observer。事件在控制循环中同步到达，这里只做日志和入队，
// 数据库写入由后台协程批量完成。
type AuditService struct {
	repo   repository.AccessEventRepository
	cfg    *AuditConfig
	logger *zap.Logger

	mu     sync.Mutex
	buffer []*models.AccessEvent

	queue    chan *models.AccessEvent
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewAuditService 创建审计服务。repo 为 nil 时只记录日志
func NewAuditService(repo repository.AccessEventRepository, cfg *AuditConfig) *AuditService {
	if cfg == nil {
		cfg = DefaultAuditConfig()
	}
	s := &AuditService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.WithModule("audit"),
		buffer: make([]*models.AccessEvent, 0, cfg.BatchSize),
		queue:  make(chan *models.AccessEvent, cfg.QueueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	if repo != nil {
		go s.backgroundWriter()
	} else {
		close(s.done)
	}

	return s
}

// OnEvent 实现 lock.Observer
func (s *AuditService) OnEvent(e lock.Event) {
	logger.LogLockEvent(string(e.Kind), e.From.String(), e.To.String(), e.FailCount)

	if s.repo == nil {
		return
	}

	event := ToAccessEvent(e)
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("审计队列已满，丢弃事件", zap.String("kind", event.Kind))
	}
}

// ToAccessEvent 转换为数据库模型
func ToAccessEvent(e lock.Event) *models.AccessEvent {
	event := &models.AccessEvent{
		Kind:       string(e.Kind),
		FromState:  e.From.String(),
		ToState:    e.To.String(),
		FailCount:  e.FailCount,
		Detail:     e.Detail,
		OccurredAt: e.At,
	}
	if e.To == lock.StateMenu {
		event.Menu = e.Menu.String()
	}
	return event
}

// List 查询审计事件
func (s *AuditService) List(ctx context.Context, query *models.AccessEventQuery) ([]*models.AccessEvent, *repository.Pagination, error) {
	return s.repo.List(ctx, query)
}

// Flush 立即写入缓冲中的事件
func (s *AuditService) Flush() {
	s.drain()
	s.mu.Lock()
	s.flushBuffer()
	s.mu.Unlock()
}

// Close 停止后台协程并写入剩余事件
func (s *AuditService) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.done
}

// backgroundWriter 后台写入协程
func (s *AuditService) backgroundWriter() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.queue:
			s.mu.Lock()
			s.buffer = append(s.buffer, event)
			// 缓冲区满了立即写入
			if len(s.buffer) >= s.cfg.BatchSize {
				s.flushBuffer()
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.mu.Lock()
			s.flushBuffer()
			s.mu.Unlock()

		case <-s.stopCh:
			// 退出前写入剩余的事件
			s.Flush()
			return
		}
	}
}

// drain 将队列中已有的事件移入缓冲区
func (s *AuditService) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case event := <-s.queue:
			s.buffer = append(s.buffer, event)
		default:
			return
		}
	}
}

// flushBuffer 写入缓冲区的事件到数据库，调用方持有 mu
func (s *AuditService) flushBuffer() {
	if len(s.buffer) == 0 || s.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.BatchCreate(ctx, s.buffer); err != nil {
		s.logger.Error("批量写入审计事件失败", zap.Error(err), zap.Int("count", len(s.buffer)))
	} else {
		s.logger.Debug("批量写入审计事件成功", zap.Int("count", len(s.buffer)))
	}

	s.buffer = make([]*models.AccessEvent, 0, s.cfg.BatchSize)
}

var _ lock.Observer = (*AuditService)(nil)
