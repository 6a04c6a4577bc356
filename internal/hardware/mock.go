package hardware

import (
	"sync"

	"github.com/wfunc/pin-lock/internal/lock"
)

// MockPanel 模拟面板（用于测试和无硬件运行）
type MockPanel struct {
	mu     sync.Mutex
	rows   int
	cols   int
	keys   []lock.Key
	lines  []string
	relay  bool
	reset  bool
	writes int

	// 可注入的错误
	DisplayErr error
	RelayErr   error
}

// NewMockPanel 创建模拟面板
func NewMockPanel(rows, cols int) *MockPanel {
	return &MockPanel{
		rows:  rows,
		cols:  cols,
		lines: make([]string, rows),
	}
}

// Press 排入按键
func (m *MockPanel) Press(keys ...lock.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys...)
}

// Type 按字符串排入按键，忽略无法识别的字符
func (m *MockPanel) Type(s string) {
	for _, r := range s {
		if k, ok := lock.ParseKey(r); ok {
			m.Press(k)
		}
	}
}

// SetReset 设置复位线电平
func (m *MockPanel) SetReset(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = active
}

// PollKey 实现 lock.Keypad
func (m *MockPanel) PollKey() lock.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return lock.KeyNone
	}
	k := m.keys[0]
	m.keys = m.keys[1:]
	return k
}

// Pending 未读取的按键数
func (m *MockPanel) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// Active 实现 lock.ResetLine
func (m *MockPanel) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}

// Rows 实现 lock.Display
func (m *MockPanel) Rows() int { return m.rows }

// Cols 实现 lock.Display
func (m *MockPanel) Cols() int { return m.cols }

// WriteCentered 实现 lock.Display
func (m *MockPanel) WriteCentered(row int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DisplayErr != nil {
		return m.DisplayErr
	}
	m.lines[row] = text
	m.writes++
	return nil
}

// Lines 显示内容副本
func (m *MockPanel) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Writes 显示写入次数
func (m *MockPanel) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Set 实现 lock.Relay
func (m *MockPanel) Set(asserted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RelayErr != nil {
		return m.RelayErr
	}
	m.relay = asserted
	return nil
}

// Relay 继电器状态
func (m *MockPanel) Relay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relay
}
