package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow and logged at warn level.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance backed
// by the datastore slog logger.
func createGormLogger() gormlogger.Interface {
	return &slogGormLogger{
		level:         gormlogger.Warn,
		slowThreshold: DefaultSlowQueryThreshold,
	}
}

// slogGormLogger adapts the package slog logger to gorm's logger interface.
type slogGormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		getLogger().Info(msg, "data", data)
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		getLogger().Warn(msg, "data", data)
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		getLogger().Error(msg, "data", data)
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		sql, rows := fc()
		// Record-not-found is routine, not an error
		if err == gorm.ErrRecordNotFound {
			return
		}
		getLogger().Error("query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		getLogger().Warn("slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		getLogger().Debug("query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()

	tableMappings := []struct {
		model any
		name  string
	}{
		{&ProductionLine{}, "production_lines"},
		{&DefectType{}, "defect_types"},
		{&Lot{}, "lots"},
		{&ProductionRecord{}, "production_records"},
		{&QualityRecord{}, "quality_records"},
		{&ShippingRecord{}, "shipping_records"},
		{&NormalizationAudit{}, "normalization_audits"},
		{&Discrepancy{}, "discrepancies"},
		{&ImportRecord{}, "import_records"},
	}

	for _, table := range tableMappings {
		tableStart := time.Now()
		if err := db.AutoMigrate(table.model); err != nil {
			enhancedErr := dbError(err, "auto_migrate_table", "",
				"db_type", dbType,
				"table", table.name)
			getLogger().Error("Table migration failed",
				"table", table.name,
				"error", enhancedErr)
			return enhancedErr
		}
		if debug {
			getLogger().Debug("Table migration completed",
				"table", table.name,
				"duration", time.Since(tableStart))
		}
	}

	if debug {
		getLogger().Debug("Database migration completed successfully",
			"db_type", dbType,
			"total_duration", time.Since(migrationStart),
			"tables_migrated", len(tableMappings))
	}

	return nil
}
