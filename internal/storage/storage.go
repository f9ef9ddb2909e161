package storage

import (
	"context"
	"fmt"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 关系型数据库（候选人、岗位、outbox）
	MySQL *MySQL

	// 对象存储（原始简历文件）
	MinIO *MinIO

	// 键值存储（解析文本去重，可选）
	Redis *Redis

	// 消息队列（候选人事件发布，可选）
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器
// MySQL与MinIO是核心依赖，初始化失败直接返回错误；
// Redis与RabbitMQ是可选增强，未配置时跳过，失败时降级告警
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error

	s.MySQL, err = NewMySQL(&cfg.MySQL, &cfg.RabbitMQ)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}
	logger.Info().Msg("MySQL客户端初始化成功")

	s.MinIO, err = NewMinIO(ctx, &cfg.MinIO)
	if err != nil {
		s.MySQL.Close()
		return nil, fmt.Errorf("初始化MinIO失败: %w", err)
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，内容级去重将被跳过")
			s.Redis = nil
		} else {
			logger.Info().Msg("Redis客户端初始化成功")
		}
	} else {
		logger.Info().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败，候选人事件将滞留outbox")
			s.RabbitMQ = nil
		} else if cfg.RabbitMQ.CandidateExchange != "" {
			if err := s.RabbitMQ.EnsureExchange(cfg.RabbitMQ.CandidateExchange, "topic", true); err != nil {
				logger.Warn().Err(err).Msg("声明候选人事件exchange失败")
			}
		}
	} else {
		logger.Info().Msg("RabbitMQ未配置, 跳过初始化")
	}

	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	// MinIO客户端不需要显式Close
}
