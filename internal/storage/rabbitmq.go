package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// MessageQueue 消息队列接口
// 本服务只做发布，消费方（通知、统计等下游）自行声明和绑定队列
type MessageQueue interface {
	// PublishMessage 发布消息，等待broker确认
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error

	// PublishJSON 序列化后发布JSON消息
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error

	// EnsureExchange 确保交换机存在
	EnsureExchange(exchangeName, exchangeType string, durable bool) error

	// Close 关闭连接
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 消息队列适配器，通道用sync.Pool复用
// 发布走publisher confirm，未确认的消息按配置重试；outbox中继
// 在此之上再提供持久化级别的重投保障
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	exchangeMap  map[string]bool // 已声明的exchange
	publishMutex sync.Mutex
	cfg          *config.RabbitMQConfig
	log          zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端并验证可以打开通道
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器 (%s): %w", cfg.URL, err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		cfg:         cfg,
		log:         logger.Logger.With().Str("component", "rabbitmq").Logger(),
	}

	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, errPool := conn.Channel()
			if errPool != nil {
				mq.log.Error().Err(errPool).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	mq.putChannel(testCh)

	mq.log.Info().Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			r.log.Error().Err(err).Msg("创建新RabbitMQ通道失败")
			return nil
		}
		return newCh
	}
	return ch.(*amqp.Channel)
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 声明exchange，进程内已声明过的直接返回
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	if _, exists := r.exchangeMap[exchangeName]; exists {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(exchangeName, exchangeType, durable, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	r.log.Info().Str("exchange", exchangeName).Msg("已确保exchange存在")
	return nil
}

// PublishMessage 发布消息并等待broker confirm，
// 未确认时按 publish_max_retries 配置重试（退避间隔随尝试次数递增）
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}
	pub := amqp.Publishing{
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	}

	maxAttempts := r.cfg.PublishMaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = r.publishOnce(ctx, exchangeName, routingKey, pub)
		if lastErr == nil {
			return nil
		}
		r.log.Warn().Err(lastErr).
			Int("attempt", attempt).
			Str("exchange", exchangeName).
			Str("routing_key", routingKey).
			Msg("消息发布失败")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return fmt.Errorf("消息发布在%d次尝试后仍未成功: %w", maxAttempts, lastErr)
}

// publishOnce 单次发布并等待confirm，通道故障时丢弃通道而非归还池中
func (r *RabbitMQ) publishOnce(ctx context.Context, exchangeName, routingKey string, pub amqp.Publishing) error {
	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}

	// Confirm对同一通道是幂等的，重复调用无副作用
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return fmt.Errorf("开启publisher confirm失败: %w", err)
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchangeName, routingKey, false, false, pub)
	if err != nil {
		ch.Close()
		return fmt.Errorf("发布消息失败: %w", err)
	}

	waitCtx := ctx
	if r.cfg.ConfirmTimeoutSecs > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.ConfirmTimeoutSecs)*time.Second)
		defer cancel()
	}

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		ch.Close()
		return fmt.Errorf("等待broker确认失败: %w", err)
	}
	if !acked {
		r.putChannel(ch)
		return fmt.Errorf("消息被broker拒绝 (nack)")
	}

	r.putChannel(ch)
	return nil
}

// PublishJSON 序列化后发布JSON消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}
