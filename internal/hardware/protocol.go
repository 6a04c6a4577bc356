package hardware

import (
	"encoding/binary"
	"fmt"
)

// 帧定义
const (
	FrameHeader byte   = 0xAA
	FrameTail   byte   = 0x55
	MinFrameLen uint16 = 9 // 帧头(1) + 长度(2) + 命令(1) + 序列号(2) + CRC(2) + 帧尾(1)
	MaxFrameLen uint16 = 256
)

// 命令码定义
const (
	// 主机 -> 面板
	CmdDisplayRow  byte = 0x01 // 写一行文本: [row, text...]
	CmdRelay       byte = 0x02 // 继电器: [0=释放, 1=吸合]
	CmdStatusQuery byte = 0x21 // 状态查询

	// 面板 -> 主机
	EventKeyPressed   byte = 0x13 // 按键: [key]
	EventResetLine    byte = 0x14 // 复位输入电平: [level]
	EventStatusReport byte = 0x22 // 状态: [rows, cols, relay, reset]

	// 系统指令
	CmdHeartbeat byte = 0x31
	CmdACK       byte = 0x80
	CmdNACK      byte = 0x81
)

// Frame 数据帧结构
type Frame struct {
	Header   byte
	Length   uint16 // 整帧长度
	Command  byte
	Sequence uint16
	Data     []byte
	CRC16    uint16 // 覆盖 命令+序列号+数据
	Tail     byte
}

// PanelStatus 面板状态上报
type PanelStatus struct {
	Rows  int
	Cols  int
	Relay bool
	Reset bool
}

// NewFrame 创建新的数据帧
func NewFrame(cmd byte, seq uint16, data []byte) *Frame {
	f := &Frame{
		Header:   FrameHeader,
		Command:  cmd,
		Sequence: seq,
		Data:     data,
		Tail:     FrameTail,
	}
	f.Length = MinFrameLen + uint16(len(data))
	f.CRC16 = f.CalculateCRC()
	return f
}

// ToBytes 将帧转换为字节数组
func (f *Frame) ToBytes() []byte {
	buf := make([]byte, f.Length)
	idx := 0

	buf[idx] = f.Header
	idx++

	// 长度（大端序）
	binary.BigEndian.PutUint16(buf[idx:], f.Length)
	idx += 2

	buf[idx] = f.Command
	idx++

	binary.BigEndian.PutUint16(buf[idx:], f.Sequence)
	idx += 2

	if len(f.Data) > 0 {
		copy(buf[idx:], f.Data)
		idx += len(f.Data)
	}

	binary.BigEndian.PutUint16(buf[idx:], f.CRC16)
	idx += 2

	buf[idx] = f.Tail

	return buf
}

// FromBytes 从字节数组解析帧
func (f *Frame) FromBytes(data []byte) error {
	if len(data) < int(MinFrameLen) {
		return fmt.Errorf("frame too short: %d < %d", len(data), MinFrameLen)
	}

	if data[0] != FrameHeader {
		return fmt.Errorf("invalid frame header: 0x%02X", data[0])
	}

	f.Header = data[0]
	f.Length = binary.BigEndian.Uint16(data[1:3])
	if f.Length < MinFrameLen || f.Length > MaxFrameLen {
		return fmt.Errorf("invalid frame length: %d", f.Length)
	}
	if len(data) < int(f.Length) {
		return fmt.Errorf("incomplete frame: %d < %d", len(data), f.Length)
	}

	if data[f.Length-1] != FrameTail {
		return fmt.Errorf("invalid frame tail: 0x%02X", data[f.Length-1])
	}

	f.Command = data[3]
	f.Sequence = binary.BigEndian.Uint16(data[4:6])

	f.Data = nil
	if dataLen := f.Length - MinFrameLen; dataLen > 0 {
		f.Data = make([]byte, dataLen)
		copy(f.Data, data[6:6+dataLen])
	}

	crcIdx := f.Length - 3
	f.CRC16 = binary.BigEndian.Uint16(data[crcIdx : crcIdx+2])
	f.Tail = data[f.Length-1]

	if calc := f.CalculateCRC(); calc != f.CRC16 {
		return fmt.Errorf("CRC mismatch: calc=0x%04X, recv=0x%04X", calc, f.CRC16)
	}

	return nil
}

// CalculateCRC 计算CRC16校验值
func (f *Frame) CalculateCRC() uint16 {
	data := make([]byte, 0, 3+len(f.Data))
	data = append(data, f.Command)
	data = append(data, byte(f.Sequence>>8), byte(f.Sequence&0xFF))
	data = append(data, f.Data...)
	return CRC16XMODEM(data)
}

// CRC16XMODEM CRC16-XMODEM算法
func CRC16XMODEM(data []byte) uint16 {
	crc := uint16(0x0000)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ParseStatus 解析状态上报
func ParseStatus(data []byte) (*PanelStatus, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("status report too short: %d", len(data))
	}
	return &PanelStatus{
		Rows:  int(data[0]),
		Cols:  int(data[1]),
		Relay: data[2] != 0,
		Reset: data[3] != 0,
	}, nil
}

// FrameReader 从字节流中切分帧
//
// 丢弃帧头之前的噪声；解析失败的帧跳过一个字节后重新同步。
type FrameReader struct {
	buf []byte
}

// Feed 追加数据并返回所有完整帧，以及解析失败的错误
func (r *FrameReader) Feed(p []byte) ([]*Frame, []error) {
	r.buf = append(r.buf, p...)

	var frames []*Frame
	var errs []error

	for len(r.buf) >= int(MinFrameLen) {
		idx := -1
		for i, b := range r.buf {
			if b == FrameHeader {
				idx = i
				break
			}
		}
		if idx < 0 {
			r.buf = r.buf[:0]
			break
		}
		if idx > 0 {
			r.buf = r.buf[idx:]
			continue
		}

		frameLen := binary.BigEndian.Uint16(r.buf[1:3])
		if frameLen < MinFrameLen || frameLen > MaxFrameLen {
			errs = append(errs, fmt.Errorf("invalid frame length: %d", frameLen))
			r.buf = r.buf[1:]
			continue
		}
		if len(r.buf) < int(frameLen) {
			// 数据不完整，等待更多数据
			break
		}

		frame := &Frame{}
		if err := frame.FromBytes(r.buf[:frameLen]); err != nil {
			errs = append(errs, err)
			r.buf = r.buf[1:]
			continue
		}
		frames = append(frames, frame)
		r.buf = r.buf[frameLen:]
	}

	return frames, errs
}

// Buffered 尚未组成完整帧的字节数
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}
