package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey     = "telemetry:span"
	maxStatementLen = 500
)

// GORMTracingPlugin returns a plugin that opens one client span per query,
// create, update, delete and raw statement. A nil provider means the global one.
func GORMTracingPlugin(tp trace.TracerProvider) gorm.Plugin {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracingPlugin{tracer: tp.Tracer("gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	before := func(op string) func(*gorm.DB) {
		return func(db *gorm.DB) { p.startSpan(db, op) }
	}

	registrations := []struct {
		name string
		err  error
	}{
		{"before_query", cb.Query().Before("gorm:query").Register("telemetry:before_query", before("SELECT"))},
		{"before_create", cb.Create().Before("gorm:create").Register("telemetry:before_create", before("INSERT"))},
		{"before_update", cb.Update().Before("gorm:update").Register("telemetry:before_update", before("UPDATE"))},
		{"before_delete", cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before("DELETE"))},
		{"before_raw", cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before("RAW"))},
		{"after_query", cb.Query().After("gorm:query").Register("telemetry:after_query", p.endSpan)},
		{"after_create", cb.Create().After("gorm:create").Register("telemetry:after_create", p.endSpan)},
		{"after_update", cb.Update().After("gorm:update").Register("telemetry:after_update", p.endSpan)},
		{"after_delete", cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.endSpan)},
		{"after_raw", cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.endSpan)},
	}
	for _, r := range registrations {
		if r.err != nil {
			return fmt.Errorf("failed to register %s callback: %w", r.name, r.err)
		}
	}
	return nil
}

func (p *tracingPlugin) startSpan(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", db.Dialector.Name()),
			attribute.String("db.table", table),
			attribute.String("db.operation", operation),
		),
	)
	db.InstanceSet(gormSpanKey, span)
}

func (p *tracingPlugin) endSpan(db *gorm.DB) {
	raw, ok := db.InstanceGet(gormSpanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if stmt := db.Statement.SQL.String(); stmt != "" {
		if len(stmt) > maxStatementLen {
			stmt = stmt[:maxStatementLen] + "... (truncated)"
		}
		span.SetAttributes(attribute.String("db.statement", stmt))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
