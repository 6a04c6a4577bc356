package controller

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/logger"
	"go.uber.org/zap"
)

// DefaultTickInterval 默认控制周期
const DefaultTickInterval = 20 * time.Millisecond

// Config 控制循环配置
type Config struct {
	Keypad       lock.Keypad
	Reset        lock.ResetLine // 可为 nil
	Medium       lock.Medium
	Address      int
	TickInterval time.Duration
}

// Stats 控制循环统计
type Stats struct {
	Ticks         uint64 `json:"ticks"`
	Keys          uint64 `json:"keys"`
	Resets        uint64 `json:"resets"`
	PersistErrors uint64 `json:"persist_errors"`
}

// Controller 控制循环：每个周期采样复位线、读取一个按键、推进状态机、
// 持久化记录并发布状态快照
//
// 状态机只在 Run 所在的协程中访问，其他协程通过 Snapshot 读取。
type Controller struct {
	machine *lock.Machine
	cfg     Config
	logger  *zap.Logger

	snapshot atomic.Pointer[lock.Snapshot]

	subMu       sync.RWMutex
	subscribers []func(lock.Snapshot)

	ticks         atomic.Uint64
	keys          atomic.Uint64
	resets        atomic.Uint64
	persistErrors atomic.Uint64
	persistFailed bool
}

// New 创建控制器，machine 应已经完成 Boot
func New(machine *lock.Machine, cfg Config) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	c := &Controller{
		machine: machine,
		cfg:     cfg,
		logger:  logger.WithModule("controller"),
	}
	snap := machine.Snapshot()
	c.snapshot.Store(&snap)
	return c
}

// Subscribe 订阅快照变化。回调在控制循环中同步调用，不应阻塞
func (c *Controller) Subscribe(fn func(lock.Snapshot)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Run 运行控制循环直到 ctx 结束。退出前再持久化一次
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.logger.Info("控制循环启动",
		zap.Duration("interval", c.cfg.TickInterval),
		zap.String("state", c.machine.State().String()))

	for {
		select {
		case <-ctx.Done():
			c.persist()
			c.logger.Info("控制循环停止", zap.Uint64("ticks", c.ticks.Load()))
			return ctx.Err()
		case <-ticker.C:
			c.Step()
		}
	}
}

// Step 执行一个周期
func (c *Controller) Step() {
	c.ticks.Add(1)

	reset := c.cfg.Reset != nil && c.cfg.Reset.Active()
	key := lock.KeyNone
	if !reset && c.cfg.Keypad != nil {
		key = c.cfg.Keypad.PollKey()
	}

	if reset {
		c.resets.Add(1)
		c.logger.Warn("复位输入有效，恢复出厂设置")
	}
	if key != lock.KeyNone {
		c.keys.Add(1)
	}

	c.machine.Step(key, reset)
	c.persist()
	c.publish()
}

// persist 写入记录，介质在内容未变化时跳过写入
func (c *Controller) persist() {
	if c.cfg.Medium == nil {
		return
	}
	if err := c.machine.Persist(c.cfg.Medium, c.cfg.Address); err != nil {
		c.persistErrors.Add(1)
		// 连续失败只记录一次
		if !c.persistFailed {
			c.logger.Error("持久化记录失败", zap.Error(err))
		}
		c.persistFailed = true
		return
	}
	if c.persistFailed {
		c.logger.Info("持久化已恢复")
		c.persistFailed = false
	}
}

func (c *Controller) publish() {
	next := c.machine.Snapshot()
	prev := c.snapshot.Swap(&next)
	if prev != nil && sameView(*prev, next) {
		return
	}

	c.subMu.RLock()
	subs := c.subscribers
	c.subMu.RUnlock()

	for _, fn := range subs {
		fn(next)
	}
}

// sameView 忽略时间戳和倒计时毫秒数比较快照
func sameView(a, b lock.Snapshot) bool {
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	a.RelockRemainingMS, b.RelockRemainingMS = 0, 0
	a.LockoutRemainingMS, b.LockoutRemainingMS = 0, 0
	return reflect.DeepEqual(a, b)
}

// Snapshot 最近一个周期结束时的状态
func (c *Controller) Snapshot() lock.Snapshot {
	return *c.snapshot.Load()
}

// Stats 统计快照
func (c *Controller) Stats() Stats {
	return Stats{
		Ticks:         c.ticks.Load(),
		Keys:          c.keys.Load(),
		Resets:        c.resets.Load(),
		PersistErrors: c.persistErrors.Load(),
	}
}
