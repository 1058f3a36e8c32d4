package model

import "time"

// Meta 每条记录共有的字段
// ID 即记录在集合中的 key，读取时由仓储层填充，写入时不落库
type Meta struct {
	ID        string `json:"id,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"` // 毫秒时间戳
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

func (m *Meta) GetID() string   { return m.ID }
func (m *Meta) SetID(id string) { m.ID = id }

func (m *Meta) CreatedMillis() int64 { return m.CreatedAt }

// Touch 更新时间戳；creating 为 true 时同时设置 CreatedAt
func (m *Meta) Touch(now int64, creating bool) {
	if creating && m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Record 可以存入集合的实体
type Record interface {
	GetID() string
	SetID(id string)
	CreatedMillis() int64
	Touch(now int64, creating bool)
}

// NowMillis 当前毫秒时间戳
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
