package hardware

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/lock"
)

// fakePort 模拟面板串口
type fakePort struct {
	mu       sync.Mutex
	inbound  bytes.Buffer
	written  []*Frame
	writeErr error
	closed   bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errors.New("port closed")
	}
	if p.inbound.Len() > 0 {
		defer p.mu.Unlock()
		return p.inbound.Read(b)
	}
	p.mu.Unlock()
	// 模拟读超时
	time.Sleep(2 * time.Millisecond)
	return 0, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	f := &Frame{}
	if err := f.FromBytes(b); err == nil {
		p.written = append(p.written, f)
	}
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) Flush() error { return nil }

func (p *fakePort) inject(frames ...*Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range frames {
		p.inbound.Write(f.ToBytes())
	}
}

func (p *fakePort) sent(cmd byte) []*Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Frame
	for _, f := range p.written {
		if f.Command == cmd {
			out = append(out, f)
		}
	}
	return out
}

func newTestPanel(t *testing.T) (*SerialPanel, *fakePort) {
	t.Helper()
	port := &fakePort{}
	panel := NewSerialPanel(port, 4, 20, true, 0)
	t.Cleanup(func() { _ = panel.Close() })
	return panel, port
}

func TestSerialPanel_Keys(t *testing.T) {
	panel, port := newTestPanel(t)

	port.inject(
		NewFrame(EventKeyPressed, 1, []byte{'4'}),
		NewFrame(EventKeyPressed, 3, []byte{'d'}),
	)

	var keys []lock.Key
	require.Eventually(t, func() bool {
		if k := panel.PollKey(); k != lock.KeyNone {
			keys = append(keys, k)
		}
		return len(keys) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []lock.Key{'4', lock.KeySubmit}, keys)
	assert.Equal(t, lock.KeyNone, panel.PollKey())

	// 每个按键事件都会回ACK，序列号与事件相同
	require.Eventually(t, func() bool { return len(port.sent(CmdACK)) == 2 }, time.Second, time.Millisecond)
	acks := port.sent(CmdACK)
	assert.Equal(t, uint16(1), acks[0].Sequence)
	assert.Equal(t, uint16(3), acks[1].Sequence)
}

func TestSerialPanel_ResetLine(t *testing.T) {
	panel, port := newTestPanel(t)
	assert.False(t, panel.Active())

	port.inject(NewFrame(EventResetLine, 1, []byte{1}))
	require.Eventually(t, panel.Active, time.Second, time.Millisecond)

	port.inject(NewFrame(EventStatusReport, 2, []byte{4, 20, 1, 0}))
	require.Eventually(t, func() bool { return !panel.Active() }, time.Second, time.Millisecond)
}

func TestSerialPanel_ResetActiveLow(t *testing.T) {
	port := &fakePort{}
	panel := NewSerialPanel(port, 4, 20, false, 0)
	defer panel.Close()

	assert.False(t, panel.Active())
	port.inject(NewFrame(EventResetLine, 1, []byte{0}))
	require.Eventually(t, panel.Active, time.Second, time.Millisecond)
}

func TestSerialPanel_DisplayAndRelay(t *testing.T) {
	panel, port := newTestPanel(t)

	require.NoError(t, panel.WriteCentered(1, "Enter PIN"))
	require.NoError(t, panel.Set(true))

	rows := port.sent(CmdDisplayRow)
	require.Len(t, rows, 1)
	assert.Equal(t, byte(1), rows[0].Data[0])
	assert.Equal(t, Center("Enter PIN", 20), string(rows[0].Data[1:]))

	relays := port.sent(CmdRelay)
	require.Len(t, relays, 1)
	assert.Equal(t, []byte{1}, relays[0].Data)

	err := panel.WriteCentered(4, "x")
	assert.True(t, apperrors.Is(err, apperrors.ErrOutOfRange))

	assert.Equal(t, uint64(2), panel.Stats().FramesSent)
}

func TestSerialPanel_WriteError(t *testing.T) {
	panel, port := newTestPanel(t)
	port.mu.Lock()
	port.writeErr = errors.New("io error")
	port.mu.Unlock()

	assert.True(t, apperrors.Is(panel.WriteCentered(0, "x"), apperrors.ErrSerialPortWrite))
	assert.True(t, apperrors.Is(panel.Set(false), apperrors.ErrSerialPortWrite))
}

func TestSerialPanel_BadFramesCounted(t *testing.T) {
	panel, port := newTestPanel(t)

	raw := NewFrame(EventKeyPressed, 1, []byte{'1'}).ToBytes()
	raw[6] ^= 0xFF
	port.mu.Lock()
	port.inbound.Write(raw)
	port.mu.Unlock()
	port.inject(NewFrame(CmdNACK, 9, nil))

	require.Eventually(t, func() bool {
		s := panel.Stats()
		return s.BadFrames > 0 && s.Nacks == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, lock.KeyNone, panel.PollKey())
}

func TestSerialPanel_Heartbeat(t *testing.T) {
	port := &fakePort{}
	panel := NewSerialPanel(port, 2, 16, true, 5*time.Millisecond)
	defer panel.Close()

	require.Eventually(t, func() bool { return len(port.sent(CmdHeartbeat)) >= 2 }, time.Second, time.Millisecond)
}

func TestSerialPanel_CloseIdempotent(t *testing.T) {
	port := &fakePort{}
	panel := NewSerialPanel(port, 2, 16, true, 0)
	assert.NoError(t, panel.Close())
	assert.NoError(t, panel.Close())
}
