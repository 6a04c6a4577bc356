package hardware

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chzyer/readline"
	"github.com/wfunc/pin-lock/internal/lock"
)

// Console 交互式终端面板，用于没有面板硬件的开发调试
//
// 输入行中的每个键盘符号依次作为一次按键；"reset" 产生一次复位脉冲。
type Console struct {
	rl   *readline.Instance
	rows int
	cols int

	keys  chan lock.Key
	reset atomic.Bool

	mu    sync.Mutex
	lines []string
	relay bool
}

// NewConsole 创建终端面板
func NewConsole(rows, cols int) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "keypad> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		rl:    rl,
		rows:  rows,
		cols:  cols,
		keys:  make(chan lock.Key, 256),
		lines: make([]string, rows),
	}, nil
}

// Stdout 与输入行协调的输出，日志应写入这里
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run 读取输入直到 ctx 结束或用户退出
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		case "help":
			c.printHelp()
		case "reset":
			c.reset.Store(true)
		case "screen":
			c.printScreen()
		default:
			c.Feed(input)
		}
	}
}

// Feed 将字符串中的键盘符号排入按键队列，返回排入的数量
func (c *Console) Feed(input string) int {
	n := 0
	for _, r := range input {
		key, ok := lock.ParseKey(r)
		if !ok {
			continue
		}
		select {
		case c.keys <- key:
			n++
		default:
			return n
		}
	}
	return n
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Keypad:
  0-9     digits
  A / B   previous / next
  C       clear
  D       submit
  *       lock / leave menu
  #       menu / enter

Commands:
  reset   pulse the reset line
  screen  print the whole display
  help    show this help
  quit    exit`)
}

func (c *Console) printScreen() {
	c.mu.Lock()
	defer c.mu.Unlock()

	border := "+" + strings.Repeat("-", c.cols) + "+"
	fmt.Fprintln(c.rl.Stdout(), border)
	for _, l := range c.lines {
		fmt.Fprintf(c.rl.Stdout(), "|%s|\n", Center(l, c.cols))
	}
	fmt.Fprintf(c.rl.Stdout(), "%s relay=%s\n", border, relayLabel(c.relay))
}

// PollKey 非阻塞读取一个按键
func (c *Console) PollKey() lock.Key {
	select {
	case k := <-c.keys:
		return k
	default:
		return lock.KeyNone
	}
}

// Active 复位脉冲，读取一次后自动清除
func (c *Console) Active() bool {
	return c.reset.Swap(false)
}

// Rows 显示屏行数
func (c *Console) Rows() int { return c.rows }

// Cols 显示屏列数
func (c *Console) Cols() int { return c.cols }

// WriteCentered 打印变化的行
func (c *Console) WriteCentered(row int, text string) error {
	if row < 0 || row >= c.rows {
		return fmt.Errorf("row %d out of range", row)
	}
	c.mu.Lock()
	c.lines[row] = text
	c.mu.Unlock()

	fmt.Fprintf(c.rl.Stdout(), "LCD%d |%s|\n", row, Center(text, c.cols))
	return nil
}

// Set 打印继电器变化
func (c *Console) Set(asserted bool) error {
	c.mu.Lock()
	changed := c.relay != asserted
	c.relay = asserted
	c.mu.Unlock()

	if changed {
		fmt.Fprintf(c.rl.Stdout(), "RELAY %s\n", relayLabel(asserted))
	}
	return nil
}

func relayLabel(asserted bool) string {
	if asserted {
		return "locked"
	}
	return "released"
}

// Close 关闭终端，阻塞中的 Run 随之返回
func (c *Console) Close() error {
	return c.rl.Close()
}
