package models

import (
	"time"
)

// StorageBlock 数据库存储介质中的字节块，按地址唯一
type StorageBlock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   int       `gorm:"uniqueIndex;not null" json:"address"`
	Data      []byte    `gorm:"not null" json:"-"`
	Size      int       `gorm:"not null" json:"size"`
	Writes    int64     `gorm:"default:0" json:"writes"` // 实际写入次数（内容未变化时不计）
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (StorageBlock) TableName() string {
	return "storage_blocks"
}

// AccessEvent 锁控审计事件，不包含任何PIN或摘要
type AccessEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"uniqueIndex;size:36;not null" json:"event_id"`
	Kind       string    `gorm:"size:32;index;not null" json:"kind"`
	FromState  string    `gorm:"size:16" json:"from_state"`
	ToState    string    `gorm:"size:16" json:"to_state"`
	Menu       string    `gorm:"size:16" json:"menu,omitempty"`
	FailCount  int       `json:"fail_count"`
	Detail     string    `gorm:"size:255" json:"detail,omitempty"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (AccessEvent) TableName() string {
	return "access_events"
}

// AccessEventQuery 审计事件查询条件
type AccessEventQuery struct {
	Kind     string     `form:"kind"`
	Since    *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// All 需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&StorageBlock{},
		&AccessEvent{},
	}
}
