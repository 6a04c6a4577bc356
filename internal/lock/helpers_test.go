package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeDisplay struct {
	rows, cols int
	lines      []string
	writes     int
}

func newFakeDisplay(rows, cols int) *fakeDisplay {
	return &fakeDisplay{rows: rows, cols: cols, lines: make([]string, rows)}
}

func (d *fakeDisplay) Rows() int { return d.rows }
func (d *fakeDisplay) Cols() int { return d.cols }

func (d *fakeDisplay) WriteCentered(row int, text string) error {
	d.lines[row] = text
	d.writes++
	return nil
}

type fakeRelay struct {
	asserted bool
	calls    int
}

func (r *fakeRelay) Set(asserted bool) error {
	r.asserted = asserted
	r.calls++
	return nil
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnEvent(e Event) { r.events = append(r.events, e) }

func (r *eventRecorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *eventRecorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type memMedium struct {
	data    []byte
	writes  int
	readErr error
}

func newMemMedium(size int) *memMedium {
	return &memMedium{data: make([]byte, size)}
}

func (m *memMedium) Read(addr, size int) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]byte, size)
	copy(out, m.data[addr:addr+size])
	return out, nil
}

func (m *memMedium) Write(addr int, p []byte) error {
	copy(m.data[addr:], p)
	m.writes++
	return nil
}

type harness struct {
	m       *Machine
	clock   *fakeClock
	display *fakeDisplay
	relay   *fakeRelay
	events  *eventRecorder
}

func testHasher(t *testing.T) Hasher {
	t.Helper()
	h, err := NewHasher("blake2b", "")
	require.NoError(t, err)
	return h
}

func (h *harness) options(hasher Hasher) Options {
	return Options{
		Hasher:         hasher,
		Clock:          h.clock,
		Display:        h.display,
		Relay:          h.relay,
		Observer:       h.events,
		NoticeDuration: 1500 * time.Millisecond,
	}
}

func newHarnessParts() *harness {
	return &harness{
		clock:   newFakeClock(),
		display: newFakeDisplay(4, 20),
		relay:   &fakeRelay{},
		events:  &eventRecorder{},
	}
}

// newHarness 以给定记录启动状态机；rec 为 nil 时使用默认记录
func newHarness(t *testing.T, rec *Record) *harness {
	t.Helper()
	h := newHarnessParts()
	h.m = NewMachine(rec, h.options(testHasher(t)))
	h.m.Start()
	return h
}

// lockedWith 带有指定PIN、处于上锁状态的记录
func lockedWith(t *testing.T, pins ...string) *Record {
	t.Helper()
	rec := DefaultRecord(testHasher(t))
	for _, pin := range pins {
		require.NoError(t, rec.Credentials.Add(pin))
	}
	rec.State = StateLocked
	rec.Menu = MenuMain
	return rec
}

// press 依次输入按键，每个按键一个周期
func (h *harness) press(keys string) {
	for _, r := range keys {
		k, ok := ParseKey(r)
		if !ok {
			panic("invalid key: " + string(r))
		}
		h.m.Tick(k)
	}
}

func (h *harness) idle() {
	h.m.Tick(KeyNone)
}
