package models

import "time"

// OutboxMessage 候选人事件的outbox记录，与业务写入同事务落库，
// 由中继轮询发布到RabbitMQ后标记为SENT
type OutboxMessage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`
	// AggregateID 事件所属聚合的ID，这里是候选人ID
	AggregateID      string `gorm:"type:varchar(36);not null;index"`
	EventType        string `gorm:"type:varchar(255);not null"`
	Payload          string `gorm:"type:json;not null"` // JSON序列化后的事件体
	TargetExchange   string `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string `gorm:"type:varchar(255);not null"`
	// Status 取值 PENDING / SENT / FAILED，与创建时间组成中继扫描索引
	Status       string     `gorm:"type:varchar(20);default:'PENDING';not null;index:idx_outbox_status_created_at"`
	RetryCount   int        `gorm:"default:0"`
	CreatedAt    time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_outbox_status_created_at,sort:asc"`
	ProcessedAt  *time.Time `gorm:"type:datetime(6);null"`
	ErrorMessage string     `gorm:"type:text"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
