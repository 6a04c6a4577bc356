package lock

// Key 键盘事件。数字键直接使用 '0'..'9'
type Key byte

// 功能键（4x4 矩阵键盘布局）
const (
	KeyNone   Key = 0
	KeyPrev   Key = 'A' // 上一项
	KeyNext   Key = 'B' // 下一项
	KeyClear  Key = 'C' // 清除输入
	KeySubmit Key = 'D' // 提交
	KeyLock   Key = '*' // 上锁 / 退出菜单
	KeyMenu   Key = '#' // 进入菜单 / 确认子菜单
)

// IsDigit 是否为数字键
func (k Key) IsDigit() bool {
	return k >= '0' && k <= '9'
}

// ParseKey 将键盘符号转换为按键
func ParseKey(r rune) (Key, bool) {
	switch {
	case r >= '0' && r <= '9':
		return Key(r), true
	case r == 'a' || r == 'b' || r == 'c' || r == 'd':
		return Key(r - 'a' + 'A'), true
	case r == 'A' || r == 'B' || r == 'C' || r == 'D' || r == '*' || r == '#':
		return Key(r), true
	default:
		return KeyNone, false
	}
}

func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyPrev:
		return "prev"
	case KeyNext:
		return "next"
	case KeyClear:
		return "clear"
	case KeySubmit:
		return "submit"
	case KeyLock:
		return "lock"
	case KeyMenu:
		return "menu"
	}
	if k.IsDigit() {
		return string(rune(k))
	}
	return "unknown"
}
