package lock

// Placeholder 输入缓冲区中的空位标记
const Placeholder byte = '-'

// DefaultNumber 空输入解析出的默认值，避免得到零时长的定时器
const DefaultNumber = 5

// InputBuffer 定长数字输入缓冲区
//
// 光标指向下一个可写位置，始终满足 cursor <= len(slots)；
// cursor == len(slots) 时缓冲区已填满。
type InputBuffer struct {
	slots  []byte
	cursor int
}

// NewInputBuffer 创建指定宽度的输入缓冲区
func NewInputBuffer(width int) *InputBuffer {
	b := &InputBuffer{}
	b.Reset(width)
	return b
}

// Reset 按新宽度重置为全空位
func (b *InputBuffer) Reset(width int) {
	if width < 0 {
		width = 0
	}
	b.slots = make([]byte, width)
	for i := range b.slots {
		b.slots[i] = Placeholder
	}
	b.cursor = 0
}

// Clear 保持宽度清空输入
func (b *InputBuffer) Clear() {
	b.Reset(len(b.slots))
}

// Push 写入一个数字，缓冲区已满或不是数字时返回false
func (b *InputBuffer) Push(k Key) bool {
	if !k.IsDigit() || b.Filled() {
		return false
	}
	b.slots[b.cursor] = byte(k)
	b.cursor++
	return true
}

// Filled 是否已填满
func (b *InputBuffer) Filled() bool {
	return b.cursor == len(b.slots)
}

// Width 缓冲区宽度
func (b *InputBuffer) Width() int {
	return len(b.slots)
}

// Cursor 当前光标位置
func (b *InputBuffer) Cursor() int {
	return b.cursor
}

// Digits 已输入的数字
func (b *InputBuffer) Digits() string {
	return string(b.slots[:b.cursor])
}

// String 包含空位标记的完整内容，例如 "60--"
func (b *InputBuffer) String() string {
	return string(b.slots)
}

// Masked 用 '*' 遮盖已输入的数字
func (b *InputBuffer) Masked() string {
	out := make([]byte, len(b.slots))
	for i := range b.slots {
		if i < b.cursor {
			out[i] = '*'
		} else {
			out[i] = Placeholder
		}
	}
	return string(out)
}

// ParseNumber 解析缓冲区中的十进制数
func ParseNumber(b *InputBuffer) int {
	return ParseSlots(b.String())
}

// ParseSlots 从左到右读取数字直到第一个空位或末尾；
// 没有任何数字时返回 DefaultNumber
func ParseSlots(slots string) int {
	n, digits := 0, 0
	for i := 0; i < len(slots); i++ {
		c := slots[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return DefaultNumber
	}
	return n
}
