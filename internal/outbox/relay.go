package outbox

import (
	"context"
	"log"
	"time"

	"resume-screener-go/internal/storage"
	"resume-screener-go/internal/storage/models"
	"resume-screener-go/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// MessageRelay 轮询 outbox 表并将候选人事件发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       *storage.RabbitMQ
	logger          *log.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	tracer          trace.Tracer
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(db *gorm.DB, publisher *storage.RabbitMQ, logger *log.Logger) *MessageRelay {
	return &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("outbox-relay"),
	}
}

// WithPollingInterval 覆盖默认轮询间隔
func (r *MessageRelay) WithPollingInterval(d time.Duration) *MessageRelay {
	if d > 0 {
		r.pollingInterval = d
	}
	return r
}

// WithBatchSize 覆盖默认批量大小
func (r *MessageRelay) WithBatchSize(n int) *MessageRelay {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// Start 开始消息中继的轮询过程
func (r *MessageRelay) Start() {
	r.logger.Println("MessageRelay starting...")
	ticker := time.NewTicker(r.pollingInterval)

	go func() {
		for {
			select {
			case <-r.done:
				ticker.Stop()
				r.logger.Println("MessageRelay stopped.")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					r.logger.Printf("Error processing pending messages: %v", err)
				}
			}
		}
	}()
}

// Stop 优雅地停止消息中继服务
func (r *MessageRelay) Stop() {
	r.logger.Println("MessageRelay stopping...")
	close(r.done)
}

// processPendingMessages 获取并处理一批来自 outbox 表的待处理消息
// `FOR UPDATE SKIP LOCKED` 让多实例部署时互不争抢同一批行
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", "PENDING").
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		r.logger.Printf("Failed to fetch pending outbox messages: %v", err)
		return err
	}

	// 空轮询不创建Span
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(
			attribute.Int("messaging.batch.message_count", len(messages)),
		),
	)
	defer span.End()

	r.logger.Printf("Fetched %d pending messages to process.", len(messages))

	for _, msg := range messages {
		err := r.publisher.PublishMessage(
			ctx,
			msg.TargetExchange,
			msg.TargetRoutingKey,
			[]byte(msg.Payload),
			true,
		)

		if err != nil {
			r.logger.Printf("Failed to publish message ID %d (AggregateID: %s): %v. Retries: %d", msg.ID, msg.AggregateID, err, msg.RetryCount+1)
			tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeRabbitMQ,
				attribute.String("messaging.aggregate_id", msg.AggregateID),
			)
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = "FAILED"
			}
		} else {
			msg.Status = "SENT"
			now := time.Now()
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 更新失败则整个事务回滚，消息会在下一次轮询中被重新拾取
		if err := tx.Save(&msg).Error; err != nil {
			r.logger.Printf("Failed to update outbox message ID %d: %v", msg.ID, err)
			return err
		}
	}

	return tx.Commit().Error
}
