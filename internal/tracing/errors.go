package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span上统一的错误分类标签，便于在追踪后端按类别过滤
type ErrorType string

const (
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeStorage    ErrorType = "object_storage"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// RecordError 在span上记录错误、打上分类标签并置为Error状态
func RecordError(span trace.Span, err error, errorType ErrorType) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(errorType)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordErrorWithInfo 同 RecordError，并附加调用方给定的span属性
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	RecordError(span, err, errorType)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
}
