package lock

import "time"

// Clock 单调时钟。Sleep 用于提示信息的同步阻塞
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock 系统时钟，time.Now 自带单调读数
type SystemClock struct{}

// Now 当前时间
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep 阻塞等待
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Timer 单次倒计时，轮询判断是否到期
type Timer struct {
	deadline time.Time
	armed    bool
}

// Arm 从now开始倒计时d
func (t *Timer) Arm(now time.Time, d time.Duration) {
	t.deadline = now.Add(d)
	t.armed = true
}

// Disarm 取消倒计时
func (t *Timer) Disarm() {
	t.armed = false
	t.deadline = time.Time{}
}

// Armed 是否正在计时
func (t *Timer) Armed() bool {
	return t.armed
}

// Expired 是否已到期，未启动的定时器永不到期
func (t *Timer) Expired(now time.Time) bool {
	return t.armed && !now.Before(t.deadline)
}

// Remaining 剩余时间
func (t *Timer) Remaining(now time.Time) time.Duration {
	if !t.armed {
		return 0
	}
	if r := t.deadline.Sub(now); r > 0 {
		return r
	}
	return 0
}
