package contextkeys

import (
	"context"
)

// Тип для ключа контекста
type traceIDKeyType struct{}

var traceIDKey = traceIDKeyType{}

// ContextWithTraceID помещает trace_id в контекст
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext извлекает trace_id из контекста
// Возвращает пустую строку, если trace_id не найден
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// Detach возвращает новый фоновый контекст, в который перенесены логгер и trace_id.
// Нужен для работы, которая переживает HTTP-запрос (debounce, fire-and-forget).
func Detach(ctx context.Context) context.Context {
	detached := ContextWithLogger(context.Background(), LoggerFromContext(ctx))
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		detached = ContextWithTraceID(detached, traceID)
	}
	return detached
}
