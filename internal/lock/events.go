package lock

import "time"

// EventKind 锁控事件类型
type EventKind string

const (
	EventStateChanged       EventKind = "state_changed"
	EventUnlocked           EventKind = "unlocked"
	EventFailedAttempt      EventKind = "failed_attempt"
	EventLockout            EventKind = "lockout"
	EventLockoutEnded       EventKind = "lockout_ended"
	EventAutoRelock         EventKind = "auto_relock"
	EventCredentialAdded    EventKind = "credential_added"
	EventCredentialRemoved  EventKind = "credential_removed"
	EventCredentialRejected EventKind = "credential_rejected"
	EventCredentialsCleared EventKind = "credentials_cleared"
	EventSettingChanged     EventKind = "setting_changed"
	EventFactoryReset       EventKind = "factory_reset"
	EventDefaultsLoaded     EventKind = "defaults_loaded"
)

// Event 状态机事件，不包含任何PIN或摘要
type Event struct {
	Kind      EventKind
	From      State
	To        State
	Menu      MenuState
	FailCount int
	Detail    string
	At        time.Time
}

// Observer 事件观察者（审计、日志）。在控制循环中同步调用，不应阻塞
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc 函数适配器
type ObserverFunc func(e Event)

// OnEvent 实现Observer接口
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers 将事件依次分发给多个观察者
type Observers []Observer

// OnEvent 实现Observer接口
func (o Observers) OnEvent(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}
