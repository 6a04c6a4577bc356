package lock

import (
	"time"

	"go.uber.org/zap"
)

// DefaultNoticeDuration 提示信息的阻塞显示时长
const DefaultNoticeDuration = 1500 * time.Millisecond

// Options 状态机依赖
type Options struct {
	Hasher         Hasher
	Clock          Clock
	Display        Display
	Relay          Relay
	Observer       Observer
	Logger         *zap.Logger
	NoticeDuration time.Duration
}

func (o *Options) setDefaults() {
	if o.Hasher == nil {
		o.Hasher, _ = NewHasher("blake2b", "")
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.Display == nil {
		o.Display = nopDisplay{}
	}
	if o.Relay == nil {
		o.Relay = nopRelay{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.NoticeDuration <= 0 {
		o.NoticeDuration = DefaultNoticeDuration
	}
}

// Machine 锁控状态机
//
// 单协程使用：Step 只能由控制循环调用。
type Machine struct {
	opts Options
	log  *zap.Logger

	rec     *Record
	buf     *InputBuffer
	relock  Timer
	lockout Timer

	relayAsserted bool
	redraw        bool
	lines         []string // 显示屏当前内容
}

// NewMachine 创建状态机，rec 为 nil 时使用出厂默认记录。
// 创建后需调用 Start 进入记录中的状态
func NewMachine(rec *Record, opts Options) *Machine {
	opts.setDefaults()
	if rec == nil {
		rec = DefaultRecord(opts.Hasher)
	}
	return &Machine{
		opts:   opts,
		log:    opts.Logger,
		rec:    rec,
		buf:    NewInputBuffer(0),
		lines:  make([]string, opts.Display.Rows()),
		redraw: true,
	}
}

// Start 重新进入记录中保存的状态，执行与运行时相同的转换逻辑
func (m *Machine) Start() {
	target, sub := m.rec.State, m.rec.Menu
	m.rec.State = StateInitial

	switch target {
	case StateUnlocked:
		m.enterUnlocked()
	case StateLockout:
		m.enterLockout()
	case StateMenu:
		m.enterMenu(sub)
	default:
		m.transition(StateLocked)
	}

	m.render(m.opts.Clock.Now())
}

// Step 执行一个控制周期。复位输入优先于所有其他逻辑
func (m *Machine) Step(key Key, reset bool) {
	if reset {
		m.FactoryReset()
		return
	}
	m.Tick(key)
}

// Tick 将按键分发给当前状态并刷新显示
func (m *Machine) Tick(key Key) {
	now := m.opts.Clock.Now()

	switch m.rec.State {
	case StateLocked:
		m.handleLocked(key)
	case StateUnlocked:
		m.handleUnlocked(key, now)
	case StateLockout:
		m.handleLockout(now)
	case StateMenu:
		if m.rec.Menu == MenuMain {
			m.handleMain(key)
		} else {
			m.handleSubmenu(key)
		}
	}

	m.render(m.opts.Clock.Now())
}

// FactoryReset 丢弃内存中的记录并恢复出厂默认值，不读取存储
func (m *Machine) FactoryReset() {
	from := m.rec.State
	m.rec = DefaultRecord(m.opts.Hasher)
	m.relock.Disarm()
	m.lockout.Disarm()
	m.Start()
	m.emitTransition(EventFactoryReset, from, m.rec.State, "")
}

func (m *Machine) handleLocked(key Key) {
	switch {
	case key.IsDigit():
		m.buf.Push(key)
	case key == KeyClear:
		m.buf.Clear()
	case key == KeySubmit && m.buf.Filled():
		m.checkPIN()
	}
}

// checkPIN 校验输入的PIN
func (m *Machine) checkPIN() {
	if m.rec.Credentials.Verify(m.buf.Digits()) {
		m.rec.FailCount = 0
		m.enterUnlocked()
		return
	}

	if m.rec.FailCount < maxFailCount {
		m.rec.FailCount++
	}
	m.buf.Clear()
	m.emit(EventFailedAttempt, "")
	m.notice("Wrong PIN")

	if m.rec.lockoutDue() {
		m.enterLockout()
	}
}

func (m *Machine) enterUnlocked() {
	if m.rec.AutoRelock {
		m.relock.Arm(m.opts.Clock.Now(), m.rec.RelockDelay)
	} else {
		m.relock.Disarm()
	}
	m.transition(StateUnlocked)
	m.emit(EventUnlocked, "")
}

func (m *Machine) enterLockout() {
	m.lockout.Arm(m.opts.Clock.Now(), m.rec.LockoutDelay)
	m.transition(StateLockout)
	m.emit(EventLockout, m.rec.LockoutDelay.String())
}

func (m *Machine) handleUnlocked(key Key, now time.Time) {
	if m.rec.AutoRelock && m.relock.Expired(now) {
		m.relock.Disarm()
		m.transition(StateLocked)
		m.emit(EventAutoRelock, "")
		return
	}

	switch key {
	case KeyLock:
		m.relock.Disarm()
		m.transition(StateLocked)
	case KeyMenu:
		m.relock.Disarm()
		m.rec.Cursor = 0
		m.enterMenu(MenuMain)
	}
}

// handleLockout 锁定期间忽略所有按键
func (m *Machine) handleLockout(now time.Time) {
	if !m.lockout.Expired(now) {
		return
	}
	m.lockout.Disarm()
	m.rec.FailCount = 0
	m.transition(StateLocked)
	m.emit(EventLockoutEnded, "")
}

// transition 切换顶层状态：按目标状态重置输入缓冲区、刷新继电器并标记整屏重绘
func (m *Machine) transition(to State) {
	from := m.rec.State
	m.rec.State = to

	width := 0
	switch to {
	case StateLocked:
		width = m.rec.PINLength
	case StateMenu:
		width = m.rec.entryWidth(m.rec.Menu)
	}
	m.buf.Reset(width)
	m.redraw = true

	m.setRelay(to != StateUnlocked)

	if from != to {
		m.log.Info("状态切换",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Int("fail_count", m.rec.FailCount))
		m.emitTransition(EventStateChanged, from, to, "")
	}
}

func (m *Machine) setRelay(asserted bool) {
	if err := m.opts.Relay.Set(asserted); err != nil {
		m.log.Error("继电器控制失败", zap.Bool("asserted", asserted), zap.Error(err))
		return
	}
	m.relayAsserted = asserted
}

func (m *Machine) emit(kind EventKind, detail string) {
	m.emitTransition(kind, m.rec.State, m.rec.State, detail)
}

func (m *Machine) emitTransition(kind EventKind, from, to State, detail string) {
	if m.opts.Observer == nil {
		return
	}
	m.opts.Observer.OnEvent(Event{
		Kind:      kind,
		From:      from,
		To:        to,
		Menu:      m.rec.Menu,
		FailCount: m.rec.FailCount,
		Detail:    detail,
		At:        m.opts.Clock.Now(),
	})
}

// Record 当前记录（只在控制循环协程中访问）
func (m *Machine) Record() *Record {
	return m.rec
}

// State 当前顶层状态
func (m *Machine) State() State {
	return m.rec.State
}

// Menu 当前菜单子状态
func (m *Machine) Menu() MenuState {
	return m.rec.Menu
}

// Buffer 当前输入缓冲区
func (m *Machine) Buffer() *InputBuffer {
	return m.buf
}

// RelayAsserted 继电器最后一次成功设置的值
func (m *Machine) RelayAsserted() bool {
	return m.relayAsserted
}

// Persist 将完整记录写入介质
func (m *Machine) Persist(medium Medium, addr int) error {
	return medium.Write(addr, EncodeRecord(m.rec))
}
