package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/storage/models"
	"resume-screener-go/internal/tracing"
	"resume-screener-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("resume-screener/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}

		newCtx, span := p.tracer.Start(ctx, spanName, opts...)

		// 将span保存在DB上下文中，以便在after回调中使用
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		// ErrRecordNotFound 是业务逻辑正常情况的一部分，不应作为错误处理
		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
	mq  *config.RabbitMQConfig
}

// 确保MySQL实现了流水线的候选人存储接口
var _ processor.CandidateStore = (*MySQL)(nil)

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig, mqCfg *config.RabbitMQConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
		mq:  mqCfg,
	}

	tracingPlugin := NewGormTracingPlugin(cfg.Database)
	if err := db.Use(tracingPlugin); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	// 迁移期间关闭SQL日志打印
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	if err := silentDB.AutoMigrate(
		&models.Candidate{},
		&models.JobRole{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// ListActiveJobRoles 读取某HR用户当前启用的全部岗位定义
func (m *MySQL) ListActiveJobRoles(ctx context.Context, ownerUserID string) ([]types.JobRoleDefinition, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ListActiveJobRoles",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("owner_user_id", ownerUserID)),
	)
	defer span.End()

	var rows []models.JobRole
	err := m.db.WithContext(ctx).
		Where("owner_user_id = ? AND status = ?", ownerUserID, constants.JobRoleStatusActive).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("查询岗位列表失败: %w", err)
	}

	roles := make([]types.JobRoleDefinition, 0, len(rows))
	for _, row := range rows {
		var skills []types.RequiredSkill
		if len(row.RequiredSkillsJSON) > 0 {
			if err := json.Unmarshal(row.RequiredSkillsJSON, &skills); err != nil {
				tracing.RecordError(span, err, tracing.ErrorTypeInternal)
				return nil, fmt.Errorf("解析岗位 %s 的技能要求失败: %w", row.JobRoleID, err)
			}
		}
		roles = append(roles, types.JobRoleDefinition{
			ID:              row.JobRoleID,
			Title:           row.Title,
			RequiredSkills:  skills,
			ExperienceLevel: types.ExperienceLevel(row.ExperienceLevel),
			IsActive:        row.Status == constants.JobRoleStatusActive,
		})
	}

	span.SetAttributes(attribute.Int("role_count", len(roles)))
	return roles, nil
}

// EmailExists 检查某HR用户名下是否已存在该邮箱的候选人
func (m *MySQL) EmailExists(ctx context.Context, ownerUserID string, email string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("owner_user_id = ? AND email = ?", ownerUserID, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询候选人邮箱失败: %w", err)
	}
	return count > 0, nil
}

// CreateCandidate 在一个事务中写入候选人记录与outbox事件
// 事务保证候选人落库与 candidate.created 事件要么同时成功要么同时失败
func (m *MySQL) CreateCandidate(ctx context.Context, record *processor.CandidateRecord) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.CreateCandidate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("candidate.id", record.CandidateID)),
	)
	defer span.End()

	row, err := candidateRowFromRecord(record)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return err
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("创建候选人记录失败: %w", err)
		}

		if m.mq == nil || m.mq.URL == "" {
			return nil
		}

		event := CandidateCreatedEvent{
			CandidateID:    record.CandidateID,
			OwnerUserID:    record.OwnerUserID,
			Name:           record.Facts.Name,
			Email:          record.Facts.Email,
			BestMatchJobID: record.Scores.BestMatchRoleID,
			BestMatchScore: record.Scores.BestMatchScore,
			CreatedAt:      time.Now(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("序列化候选人事件失败: %w", err)
		}

		outboxMsg := models.OutboxMessage{
			AggregateID:      record.CandidateID,
			EventType:        constants.EventCandidateCreated,
			Payload:          string(payload),
			TargetExchange:   m.mq.CandidateExchange,
			TargetRoutingKey: m.mq.CreatedRoutingKey,
		}
		if err := tx.Create(&outboxMsg).Error; err != nil {
			return fmt.Errorf("创建outbox消息失败: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// candidateRowFromRecord 将流水线的候选人记录转换为数据库行
func candidateRowFromRecord(record *processor.CandidateRecord) (*models.Candidate, error) {
	skillsJSON, err := models.ToJSON(record.Facts.Skills)
	if err != nil {
		return nil, fmt.Errorf("序列化技能列表失败: %w", err)
	}
	educationJSON, err := models.ToJSON(record.Facts.Education)
	if err != nil {
		return nil, fmt.Errorf("序列化教育经历失败: %w", err)
	}
	scoresJSON, err := models.ToJSON(record.Scores)
	if err != nil {
		return nil, fmt.Errorf("序列化评分结果失败: %w", err)
	}

	row := &models.Candidate{
		CandidateID:      record.CandidateID,
		OwnerUserID:      record.OwnerUserID,
		Name:             record.Facts.Name,
		Email:            record.Facts.Email,
		Phone:            record.Facts.Phone,
		SkillsJSON:       skillsJSON,
		EducationJSON:    educationJSON,
		ExperienceYears:  record.Facts.ExperienceYears,
		ScoreSummaryJSON: scoresJSON,
		BestMatchScore:   record.Scores.BestMatchScore,
		Status:           record.Status,
		OriginalFilename: record.OriginalFilename,
		StoredFilePath:   record.StoredFilePath,
	}
	if record.Scores.BestMatchRoleID != "" {
		roleID := record.Scores.BestMatchRoleID
		row.BestMatchJobID = &roleID
	}
	return row, nil
}

// CreateJobRole 创建岗位定义
func (m *MySQL) CreateJobRole(ctx context.Context, ownerUserID string, role types.JobRoleDefinition) error {
	skillsJSON, err := models.ToJSON(role.RequiredSkills)
	if err != nil {
		return fmt.Errorf("序列化技能要求失败: %w", err)
	}
	status := constants.JobRoleStatusActive
	if !role.IsActive {
		status = constants.JobRoleStatusInactive
	}
	row := models.JobRole{
		JobRoleID:          role.ID,
		OwnerUserID:        ownerUserID,
		Title:              role.Title,
		RequiredSkillsJSON: skillsJSON,
		ExperienceLevel:    string(role.ExperienceLevel),
		Status:             status,
	}
	if err := m.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("创建岗位定义失败: %w", err)
	}
	return nil
}

// GetCandidateByID 通过ID获取候选人记录
func (m *MySQL) GetCandidateByID(ctx context.Context, candidateID string) (*models.Candidate, error) {
	var row models.Candidate
	err := m.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListCandidates 分页列出某HR用户的候选人，按最佳匹配分数降序
func (m *MySQL) ListCandidates(ctx context.Context, ownerUserID string, offset, limit int) ([]models.Candidate, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	query := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("owner_user_id = ?", ownerUserID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计候选人数量失败: %w", err)
	}

	var rows []models.Candidate
	err := query.
		Order("best_match_score DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询候选人列表失败: %w", err)
	}
	return rows, total, nil
}

// UpdateCandidateStatus 更新候选人状态
func (m *MySQL) UpdateCandidateStatus(ctx context.Context, ownerUserID, candidateID, status string) error {
	result := m.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ? AND owner_user_id = ?", candidateID, ownerUserID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新候选人状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
