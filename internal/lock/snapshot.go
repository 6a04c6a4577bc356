package lock

import "time"

// Snapshot 对外只读的状态快照，不包含任何摘要
type Snapshot struct {
	State              string    `json:"state"`
	Menu               string    `json:"menu,omitempty"`
	Cursor             int       `json:"cursor"`
	PINLength          int       `json:"pin_length"`
	CredentialCount    int       `json:"credential_count"`
	CredentialCapacity int       `json:"credential_capacity"`
	AutoRelock         bool      `json:"auto_relock"`
	RelockDelayMS      int64     `json:"relock_delay_ms"`
	LockoutDelayMS     int64     `json:"lockout_delay_ms"`
	FailLimit          int       `json:"fail_limit"`
	FailCheck          bool      `json:"fail_check"`
	FailCount          int       `json:"fail_count"`
	RelockRemainingMS  int64     `json:"relock_remaining_ms,omitempty"`
	LockoutRemainingMS int64     `json:"lockout_remaining_ms,omitempty"`
	RelayAsserted      bool      `json:"relay_asserted"`
	Display            []string  `json:"display"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Snapshot 生成当前状态快照
func (m *Machine) Snapshot() Snapshot {
	now := m.opts.Clock.Now()
	s := Snapshot{
		State:              m.rec.State.String(),
		Cursor:             m.rec.Cursor,
		PINLength:          m.rec.PINLength,
		CredentialCount:    m.rec.Credentials.Len(),
		CredentialCapacity: MaxCredentials,
		AutoRelock:         m.rec.AutoRelock,
		RelockDelayMS:      m.rec.RelockDelay.Milliseconds(),
		LockoutDelayMS:     m.rec.LockoutDelay.Milliseconds(),
		FailLimit:          m.rec.FailLimit,
		FailCheck:          m.rec.FailCheck,
		FailCount:          m.rec.FailCount,
		RelayAsserted:      m.relayAsserted,
		Display:            m.Lines(),
		UpdatedAt:          now,
	}
	if m.rec.State == StateMenu {
		s.Menu = m.rec.Menu.String()
	}
	if m.rec.State == StateUnlocked && m.relock.Armed() {
		s.RelockRemainingMS = m.relock.Remaining(now).Milliseconds()
	}
	if m.rec.State == StateLockout {
		s.LockoutRemainingMS = m.lockout.Remaining(now).Milliseconds()
	}
	return s
}
