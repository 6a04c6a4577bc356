package lock

import "time"

// State 顶层状态
type State uint8

const (
	StateInitial State = iota // 仅在启动过程中出现
	StateLocked
	StateUnlocked
	StateMenu
	StateLockout
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	case StateMenu:
		return "menu"
	case StateLockout:
		return "lockout"
	default:
		return "unknown"
	}
}

// resumable 可以从存储中恢复的状态
func (s State) resumable() bool {
	return s >= StateLocked && s <= StateLockout
}

// 默认配置
const (
	DefaultPINLength    = 4
	DefaultFailLimit    = 3
	DefaultRelockDelay  = 15000 * time.Millisecond
	DefaultLockoutDelay = 15000 * time.Millisecond

	MaxPINLength = 9
	MaxFailLimit = 999
	maxFailCount = 0xFFFF
)

// Record 持久化记录：凭据、设置与当前状态
type Record struct {
	PINLength    int
	Credentials  *CredentialStore
	AutoRelock   bool
	RelockDelay  time.Duration
	LockoutDelay time.Duration
	FailLimit    int
	FailCheck    bool // 失败锁定开关，关闭时 FailLimit 保留但不生效
	FailCount    int
	State        State
	Menu         MenuState
	Cursor       int // 主菜单光标
}

// DefaultRecord 出厂默认记录，初始状态强制为 菜单/添加PIN
func DefaultRecord(h Hasher) *Record {
	return &Record{
		PINLength:    DefaultPINLength,
		Credentials:  NewCredentialStore(h),
		AutoRelock:   true,
		RelockDelay:  DefaultRelockDelay,
		LockoutDelay: DefaultLockoutDelay,
		FailLimit:    DefaultFailLimit,
		FailCheck:    true,
		State:        StateMenu,
		Menu:         MenuAddPIN,
	}
}

// lockoutDue 连续失败次数是否达到锁定阈值
func (r *Record) lockoutDue() bool {
	return r.FailCheck && r.FailLimit > 0 && r.FailCount >= r.FailLimit
}

// entryWidth 子菜单输入宽度，0 表示使用 PIN 长度（仅添加/删除PIN）
func (r *Record) entryWidth(m MenuState) int {
	entry := menuEntries[m]
	if entry.usesPIN {
		return r.PINLength
	}
	return entry.width
}
