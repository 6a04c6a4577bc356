package lock

// Medium 字节块存储介质（EEPROM、镜像文件或数据库）
//
// Write 在内容未变化时应当跳过实际写入，控制循环每个周期都会调用。
type Medium interface {
	Read(addr, size int) ([]byte, error)
	Write(addr int, p []byte) error
}

// Keypad 键盘，每次轮询最多返回一个按键，无按键时返回 KeyNone
type Keypad interface {
	PollKey() Key
}

// Display 字符显示屏，WriteCentered 覆盖整行
type Display interface {
	Rows() int
	Cols() int
	WriteCentered(row int, text string) error
}

// Relay 继电器输出，asserted 表示上锁
type Relay interface {
	Set(asserted bool) error
}

// ResetLine 硬件复位输入，每个周期采样一次
type ResetLine interface {
	Active() bool
}

// nopDisplay 未接显示屏时使用
type nopDisplay struct{}

func (nopDisplay) Rows() int                       { return 2 }
func (nopDisplay) Cols() int                       { return 16 }
func (nopDisplay) WriteCentered(int, string) error { return nil }

type nopRelay struct{}

func (nopRelay) Set(bool) error { return nil }
