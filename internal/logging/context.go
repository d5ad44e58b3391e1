// internal/logging/context.go
package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/contextkeys"
)

// FieldsFromContext extrae los campos de logging (trace_id, mode) del contexto
// y los devuelve como un slice de zap.Field.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, zap.String("trace_id", tid))
	}
	if mode, ok := ctx.Value(contextkeys.ModeKey).(string); ok && mode != "" {
		fields = append(fields, zap.String("mode", mode))
	}
	return fields
}

// WithTraceID guarda el trace id de la request en el contexto.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.TraceIDKey, traceID)
}

// WithMode guarda el modo de resolución (id, tracking, date_window).
func WithMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.ModeKey, mode)
}

// TraceID devuelve el trace id o ""
func TraceID(ctx context.Context) string {
	tid, _ := ctx.Value(contextkeys.TraceIDKey).(string)
	return tid
}
