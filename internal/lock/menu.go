package lock

import (
	"fmt"
	"time"
)

// MenuState 菜单子状态
type MenuState uint8

const (
	MenuMain MenuState = iota
	MenuAddPIN
	MenuRemovePIN
	MenuToggleRelock
	MenuRelockDelay
	MenuPINLength
	MenuClearAll
	MenuFailLimit
	MenuFailTimeout
)

// menuEntry 子状态描述：标签与数字输入宽度
type menuEntry struct {
	name    string
	label   string
	width   int
	usesPIN bool // 输入宽度取 PINLength
}

var menuEntries = map[MenuState]menuEntry{
	MenuMain:         {name: "main", label: "Menu"},
	MenuAddPIN:       {name: "add_pin", label: "Add PIN", usesPIN: true},
	MenuRemovePIN:    {name: "remove_pin", label: "Remove PIN", usesPIN: true},
	MenuToggleRelock: {name: "toggle_relock", label: "Auto relock"},
	MenuRelockDelay:  {name: "relock_delay", label: "Relock delay", width: 4},
	MenuPINLength:    {name: "pin_length", label: "PIN length", width: 1},
	MenuClearAll:     {name: "clear_all", label: "Clear all PINs"},
	MenuFailLimit:    {name: "fail_limit", label: "Fail limit", width: 3},
	MenuFailTimeout:  {name: "fail_timeout", label: "Fail timeout", width: 4},
}

// menuItems 主菜单列表，下标即光标位置
var menuItems = []MenuState{
	MenuAddPIN,
	MenuRemovePIN,
	MenuToggleRelock,
	MenuRelockDelay,
	MenuPINLength,
	MenuClearAll,
	MenuFailLimit,
	MenuFailTimeout,
}

func (s MenuState) valid() bool {
	_, ok := menuEntries[s]
	return ok
}

func (s MenuState) String() string {
	if entry, ok := menuEntries[s]; ok {
		return entry.name
	}
	return "unknown"
}

// Label 显示用标签
func (s MenuState) Label() string {
	return menuEntries[s].label
}

// index 在主菜单中的位置，Main 返回 -1
func (s MenuState) index() int {
	for i, item := range menuItems {
		if item == s {
			return i
		}
	}
	return -1
}

// MenuItems 主菜单列表
func MenuItems() []MenuState {
	out := make([]MenuState, len(menuItems))
	copy(out, menuItems)
	return out
}

// secondsDelay 秒数输入转换为延时，+1 保证 "0000" 也得到非零延时
func secondsDelay(n int) time.Duration {
	return time.Duration(n+1) * 1000 * time.Millisecond
}

// handleMain 主菜单：循环移动光标、进入子菜单、退出到上锁状态
func (m *Machine) handleMain(key Key) {
	n := len(menuItems)
	switch key {
	case KeyNext:
		m.rec.Cursor = (m.rec.Cursor + 1) % n
	case KeyPrev:
		m.rec.Cursor = (m.rec.Cursor + n - 1) % n
	case KeySubmit, KeyMenu:
		m.enterMenu(menuItems[m.rec.Cursor])
	case KeyLock:
		if m.rec.Credentials.Len() == 0 {
			// 没有凭据时上锁将无法再解锁
			m.notice("Add a PIN first")
			return
		}
		m.transition(StateLocked)
	}
}

// handleSubmenu 子菜单的数字输入与提交
func (m *Machine) handleSubmenu(key Key) {
	switch {
	case key.IsDigit():
		m.buf.Push(key)
	case key == KeyClear:
		m.buf.Clear()
	case key == KeyLock:
		m.returnToMain(m.rec.Menu.index())
	case key == KeySubmit:
		m.submitMenu()
	}
}

func (m *Machine) submitMenu() {
	sub := m.rec.Menu
	if menuEntries[sub].usesPIN && !m.buf.Filled() {
		return
	}

	switch sub {
	case MenuAddPIN:
		if err := m.rec.Credentials.Add(m.buf.Digits()); err != nil {
			m.emit(EventCredentialRejected, err.Error())
			m.notice("PIN store full")
		} else {
			m.emit(EventCredentialAdded, fmt.Sprintf("count=%d", m.rec.Credentials.Len()))
		}
		m.returnToMain(0)

	case MenuRemovePIN:
		// 没有匹配时静默忽略
		if err := m.rec.Credentials.Remove(m.buf.Digits()); err == nil {
			m.emit(EventCredentialRemoved, fmt.Sprintf("count=%d", m.rec.Credentials.Len()))
		}
		m.returnToMain(1)

	case MenuRelockDelay:
		m.rec.RelockDelay = secondsDelay(ParseNumber(m.buf))
		m.emit(EventSettingChanged, "relock_delay="+m.rec.RelockDelay.String())
		m.returnToMain(3)

	case MenuPINLength:
		n := ParseNumber(m.buf)
		if n == 0 {
			m.notice("Invalid length")
			m.enterMenu(MenuPINLength)
			return
		}
		m.rec.PINLength = n
		m.emit(EventSettingChanged, fmt.Sprintf("pin_length=%d", n))
		m.enterMenu(MenuAddPIN)

	case MenuFailLimit:
		if n := ParseNumber(m.buf); n != 0 {
			m.rec.FailLimit = n
			m.rec.FailCheck = true
		} else {
			// FailLimit 保留，只关闭检查
			m.rec.FailCheck = false
		}
		m.emit(EventSettingChanged, fmt.Sprintf("fail_limit=%d fail_check=%t", m.rec.FailLimit, m.rec.FailCheck))
		m.returnToMain(6)

	case MenuFailTimeout:
		m.rec.LockoutDelay = secondsDelay(ParseNumber(m.buf))
		m.emit(EventSettingChanged, "lockout_delay="+m.rec.LockoutDelay.String())
		m.returnToMain(7)
	}
}

// enterMenu 进入菜单子状态并执行进入动作
func (m *Machine) enterMenu(sub MenuState) {
	m.rec.Menu = sub
	m.transition(StateMenu)

	switch sub {
	case MenuToggleRelock:
		m.rec.AutoRelock = !m.rec.AutoRelock
		m.emit(EventSettingChanged, fmt.Sprintf("auto_relock=%t", m.rec.AutoRelock))
		if m.rec.AutoRelock {
			m.notice("Auto relock on")
		} else {
			m.notice("Auto relock off")
		}
		m.returnToMain(2)

	case MenuClearAll:
		m.rec.Credentials.Clear()
		m.emit(EventCredentialsCleared, "")
		m.rec.Cursor = 0
		m.enterMenu(MenuAddPIN)
	}
}

// returnToMain 返回主菜单并停在指定位置
func (m *Machine) returnToMain(cursor int) {
	if cursor < 0 {
		cursor = 0
	}
	m.rec.Cursor = cursor
	m.enterMenu(MenuMain)
}

// menuWindow 主菜单可见窗口的起始位置，窗口末行不超过列表长度
func menuWindow(cursor, visible, total int) int {
	if visible <= 0 {
		return 0
	}
	top := cursor
	if top > total-visible {
		top = total - visible
	}
	if top < 0 {
		top = 0
	}
	return top
}
