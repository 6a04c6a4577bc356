package lock

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// screen 计算当前状态对应的整屏内容
func (m *Machine) screen(now time.Time) []string {
	rows := m.opts.Display.Rows()
	lines := make([]string, rows)
	set := func(row int, text string) {
		if row < rows {
			lines[row] = text
		}
	}

	switch m.rec.State {
	case StateLocked:
		set(0, "Enter PIN")
		set(1, m.buf.Masked())

	case StateUnlocked:
		set(0, "Unlocked")
		if m.rec.AutoRelock {
			set(1, fmt.Sprintf("Relock in %ds", ceilSeconds(m.relock.Remaining(now))))
		}
		set(rows-1, "*:Lock #:Menu")

	case StateLockout:
		set(0, "Locked out")
		set(1, fmt.Sprintf("Wait %ds", ceilSeconds(m.lockout.Remaining(now))))

	case StateMenu:
		if m.rec.Menu == MenuMain {
			m.mainScreen(lines)
			break
		}
		set(0, m.rec.Menu.Label())
		switch m.rec.Menu {
		case MenuAddPIN, MenuRemovePIN:
			set(1, m.buf.Masked())
		case MenuRelockDelay:
			set(1, m.buf.String())
			set(2, fmt.Sprintf("Now %ds", ceilSeconds(m.rec.RelockDelay)))
		case MenuFailTimeout:
			set(1, m.buf.String())
			set(2, fmt.Sprintf("Now %ds", ceilSeconds(m.rec.LockoutDelay)))
		case MenuPINLength:
			set(1, m.buf.String())
			set(2, fmt.Sprintf("Now %d", m.rec.PINLength))
		case MenuFailLimit:
			set(1, m.buf.String())
			if m.rec.FailCheck {
				set(2, fmt.Sprintf("Now %d", m.rec.FailLimit))
			} else {
				set(2, "Now off")
			}
		}
	}

	return lines
}

// mainScreen 第0行为标题，其余行显示以光标为起点的菜单窗口
func (m *Machine) mainScreen(lines []string) {
	lines[0] = MenuMain.Label()
	visible := len(lines) - 1
	top := menuWindow(m.rec.Cursor, visible, len(menuItems))
	for i := 0; i < visible && top+i < len(menuItems); i++ {
		idx := top + i
		prefix := " "
		if idx == m.rec.Cursor {
			prefix = ">"
		}
		lines[i+1] = prefix + menuItems[idx].Label()
	}
}

// render 只写入发生变化的行，需要重绘时写入全部行
func (m *Machine) render(now time.Time) {
	lines := m.screen(now)
	for row, text := range lines {
		if !m.redraw && row < len(m.lines) && m.lines[row] == text {
			continue
		}
		m.writeRow(row, text)
	}
	m.redraw = false
}

func (m *Machine) writeRow(row int, text string) {
	if cols := m.opts.Display.Cols(); len(text) > cols {
		text = text[:cols]
	}
	if err := m.opts.Display.WriteCentered(row, text); err != nil {
		m.log.Warn("显示屏写入失败", zap.Int("row", row), zap.Error(err))
	}
	if row < len(m.lines) {
		m.lines[row] = text
	}
}

// notice 整屏显示提示并阻塞整个控制循环
func (m *Machine) notice(text string) {
	rows := m.opts.Display.Rows()
	mid := (rows - 1) / 2
	for row := 0; row < rows; row++ {
		if row == mid {
			m.writeRow(row, text)
		} else {
			m.writeRow(row, "")
		}
	}
	m.opts.Clock.Sleep(m.opts.NoticeDuration)
	m.redraw = true
}

// Lines 显示屏当前内容的副本
func (m *Machine) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
