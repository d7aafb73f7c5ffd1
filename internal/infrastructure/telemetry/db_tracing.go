package telemetry

import (
	"context"
	"time"

	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracing attaches otelgorm spans and flags slow queries on them
type DBTracing struct {
	fullSQL   bool
	slowQuery time.Duration
	logger    *zap.Logger
}

// NewDBTracing reads the db_* telemetry settings
func NewDBTracing(cfg config.TelemetryConfig, logger *zap.Logger) *DBTracing {
	slow := cfg.DBSlowQueryThresh
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &DBTracing{fullSQL: cfg.DBLogFullSQL, slowQuery: slow, logger: logger}
}

// Register installs the plugin and the slow query callbacks on db
func (d *DBTracing) Register(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(db.Dialector.Name())}
	if !d.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	hooks := []struct {
		name   string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, h := range hooks {
		if err := h.before("telemetry:start_"+h.name, markStart); err != nil {
			return err
		}
		if err := h.after("telemetry:slow_"+h.name, d.checkSlow); err != nil {
			return err
		}
	}

	d.logger.Info("Database tracing enabled",
		zap.Bool("full_sql", d.fullSQL),
		zap.Duration("slow_query_threshold", d.slowQuery))
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (d *DBTracing) checkSlow(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < d.slowQuery {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
	)
	d.logger.Warn("Slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.String("trace_id", span.SpanContext().TraceID().String()))
}
