package hardware

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"
	"github.com/wfunc/pin-lock/internal/config"
	apperrors "github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/logger"
	"go.uber.org/zap"
)

const keyQueueSize = 32

// PanelStats 串口统计
type PanelStats struct {
	FramesSent     uint64 `json:"frames_sent"`
	FramesReceived uint64 `json:"frames_received"`
	BadFrames      uint64 `json:"bad_frames"`
	Nacks          uint64 `json:"nacks"`
	DroppedKeys    uint64 `json:"dropped_keys"`
}

// SerialPanel 通过串口连接的面板MCU
//
// 面板负责键盘扫描、显示屏驱动、继电器和复位输入，主机通过帧协议控制。
// 实现 lock.Keypad、lock.Display、lock.Relay、lock.ResetLine。
type SerialPanel struct {
	port        SerialPort
	rows        int
	cols        int
	resetActive bool
	heartbeat   time.Duration
	logger      *zap.Logger

	sequence uint32     // 序列号（原子操作）
	writeMu  sync.Mutex // 串口写入互斥

	keys       chan lock.Key
	resetLevel atomic.Bool

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
	badFrames      atomic.Uint64
	nacks          atomic.Uint64
	droppedKeys    atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Open 打开串口并启动面板
func Open(hw *config.HardwareConfig, rows, cols int) (*SerialPanel, error) {
	sc := hw.Serial

	parity := serial.ParityNone
	switch strings.ToUpper(sc.Parity) {
	case "O", "ODD":
		parity = serial.ParityOdd
	case "E", "EVEN":
		parity = serial.ParityEven
	}

	stopBits := serial.Stop1
	if sc.StopBits == 2 {
		stopBits = serial.Stop2
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        sc.Port,
		Baud:        sc.BaudRate,
		Size:        byte(sc.DataBits),
		Parity:      parity,
		StopBits:    stopBits,
		ReadTimeout: sc.ReadTimeout,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrSerialPortOpen, "串口 %s 打开失败", sc.Port)
	}

	p := NewSerialPanel(port, rows, cols, hw.ResetActive, sc.HeartbeatInterval)
	p.logger.Info("serial panel connected",
		zap.String("port", sc.Port),
		zap.Int("baudrate", sc.BaudRate))
	return p, nil
}

// NewSerialPanel 基于已打开的串口创建面板并启动后台任务
func NewSerialPanel(port SerialPort, rows, cols int, resetActive bool, heartbeat time.Duration) *SerialPanel {
	p := &SerialPanel{
		port:        port,
		rows:        rows,
		cols:        cols,
		resetActive: resetActive,
		heartbeat:   heartbeat,
		logger:      logger.WithModule("hardware"),
		keys:        make(chan lock.Key, keyQueueSize),
		stopCh:      make(chan struct{}),
	}
	// 复位线初始为非有效电平
	p.resetLevel.Store(!resetActive)

	if err := port.Flush(); err != nil {
		p.logger.Warn("flush serial port failed", zap.Error(err))
	}

	p.wg.Add(1)
	go p.readLoop()
	if heartbeat > 0 {
		p.wg.Add(1)
		go p.heartbeatLoop()
	}
	return p
}

// Rows 显示屏行数
func (p *SerialPanel) Rows() int { return p.rows }

// Cols 显示屏列数
func (p *SerialPanel) Cols() int { return p.cols }

// WriteCentered 居中写一行
func (p *SerialPanel) WriteCentered(row int, text string) error {
	if row < 0 || row >= p.rows {
		return apperrors.Newf(apperrors.ErrOutOfRange, "行 %d 超出 %d", row, p.rows)
	}
	line := Center(text, p.cols)
	data := make([]byte, 0, 1+len(line))
	data = append(data, byte(row))
	data = append(data, line...)
	if err := p.send(CmdDisplayRow, data); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDisplayWrite)
	}
	return nil
}

// Set 设置继电器，asserted 表示上锁
func (p *SerialPanel) Set(asserted bool) error {
	var v byte
	if asserted {
		v = 1
	}
	if err := p.send(CmdRelay, []byte{v}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrRelayWrite)
	}
	return nil
}

// PollKey 非阻塞读取一个按键
func (p *SerialPanel) PollKey() lock.Key {
	select {
	case k := <-p.keys:
		return k
	default:
		return lock.KeyNone
	}
}

// Active 复位线是否处于有效电平
func (p *SerialPanel) Active() bool {
	return p.resetLevel.Load() == p.resetActive
}

// QueryStatus 请求面板上报状态
func (p *SerialPanel) QueryStatus() error {
	return p.send(CmdStatusQuery, nil)
}

// Stats 串口统计快照
func (p *SerialPanel) Stats() PanelStats {
	return PanelStats{
		FramesSent:     p.framesSent.Load(),
		FramesReceived: p.framesReceived.Load(),
		BadFrames:      p.badFrames.Load(),
		Nacks:          p.nacks.Load(),
		DroppedKeys:    p.droppedKeys.Load(),
	}
}

// Close 停止后台任务并关闭串口
func (p *SerialPanel) Close() error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stopCh)
		err = p.port.Close()
		p.wg.Wait()
		p.logger.Info("serial panel disconnected")
	})
	return err
}

func (p *SerialPanel) nextSeq() uint16 {
	return uint16(atomic.AddUint32(&p.sequence, 1))
}

// send 发送一帧，不等待ACK（控制循环不能被面板阻塞）
func (p *SerialPanel) send(cmd byte, data []byte) error {
	frame := NewFrame(cmd, p.nextSeq(), data)
	raw := frame.ToBytes()

	p.writeMu.Lock()
	n, err := p.port.Write(raw)
	p.writeMu.Unlock()

	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrSerialPortWrite)
	}
	if n != len(raw) {
		return apperrors.Newf(apperrors.ErrSerialPortWrite, "short write: %d/%d", n, len(raw))
	}

	p.framesSent.Add(1)
	logger.LogSerialFrame("send", cmd, frame.Sequence, len(raw))
	return nil
}

// readLoop 读取循环
func (p *SerialPanel) readLoop() {
	defer p.wg.Done()

	reader := &FrameReader{}
	buf := make([]byte, 256)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		n, err := p.port.Read(buf)
		if err != nil {
			select {
			case <-p.stopCh:
				return
			default:
			}
			p.logger.Debug("serial read error", zap.Error(err))
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		frames, errs := reader.Feed(buf[:n])
		for _, e := range errs {
			p.badFrames.Add(1)
			p.logger.Warn("drop invalid frame",
				zap.Error(apperrors.Wrap(e, apperrors.ErrInvalidFrame)))
		}
		for _, f := range frames {
			p.framesReceived.Add(1)
			logger.LogSerialFrame("receive", f.Command, f.Sequence, int(f.Length))
			p.handleFrame(f)
		}
	}
}

func (p *SerialPanel) handleFrame(f *Frame) {
	switch f.Command {
	case EventKeyPressed:
		if len(f.Data) < 1 {
			p.badFrames.Add(1)
			return
		}
		key, ok := lock.ParseKey(rune(f.Data[0]))
		if !ok {
			p.logger.Warn("unknown key code", zap.Uint8("code", f.Data[0]))
			return
		}
		select {
		case p.keys <- key:
		default:
			// 队列满时丢弃，键盘本身不保证送达
			p.droppedKeys.Add(1)
		}
		p.ack(f.Sequence)

	case EventResetLine:
		if len(f.Data) < 1 {
			p.badFrames.Add(1)
			return
		}
		p.resetLevel.Store(f.Data[0] != 0)
		p.ack(f.Sequence)

	case EventStatusReport:
		status, err := ParseStatus(f.Data)
		if err != nil {
			p.badFrames.Add(1)
			return
		}
		p.resetLevel.Store(status.Reset)
		p.logger.Debug("panel status",
			zap.Int("rows", status.Rows),
			zap.Int("cols", status.Cols),
			zap.Bool("relay", status.Relay),
			zap.Bool("reset", status.Reset))

	case CmdACK:
		// 无需处理

	case CmdNACK:
		p.nacks.Add(1)
		p.logger.Warn("panel NACK", zap.Uint16("seq", f.Sequence))

	case CmdHeartbeat:
		p.ack(f.Sequence)

	default:
		p.logger.Debug("unhandled frame", zap.String("cmd", fmt.Sprintf("0x%02X", f.Command)))
	}
}

// ack 确认面板事件，回显事件的序列号
func (p *SerialPanel) ack(seq uint16) {
	frame := NewFrame(CmdACK, seq, nil)
	raw := frame.ToBytes()

	p.writeMu.Lock()
	_, err := p.port.Write(raw)
	p.writeMu.Unlock()

	if err != nil {
		p.logger.Debug("send ACK failed", zap.Error(err))
	}
}

// heartbeatLoop 心跳循环
func (p *SerialPanel) heartbeatLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.send(CmdHeartbeat, nil); err != nil {
				p.logger.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

// Center 将文本居中填充到指定宽度，超出部分截断
func Center(text string, width int) string {
	r := []rune(text)
	if len(r) >= width {
		return string(r[:width])
	}
	left := (width - len(r)) / 2
	return strings.Repeat(" ", left) + string(r) + strings.Repeat(" ", width-len(r)-left)
}
