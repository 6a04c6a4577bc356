package hardware

import "github.com/wfunc/pin-lock/internal/lock"

// Panel 面板能力集合：键盘、显示屏、继电器、复位输入
type Panel interface {
	lock.Keypad
	lock.Display
	lock.Relay
	lock.ResetLine
}

var (
	_ Panel = (*SerialPanel)(nil)
	_ Panel = (*Console)(nil)
	_ Panel = (*MockPanel)(nil)
)
