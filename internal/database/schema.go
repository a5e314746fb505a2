package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/encukou/prekapavac/internal/config"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// Values of DB_SCHEMA_MODE. Hybrid runs the embedded SQL migrations and,
// outside production, AutoMigrate on top of them.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

var productionEnvs = []string{"production", "prod", "staging", "stage"}

// schemaPlan lists the steps ApplySchema takes for a configuration.
type schemaPlan struct {
	mode string
	sql  bool
	auto bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
	}
	// The embedded scripts are PostgreSQL dialect.
	sqlite := driverName(cfg) == "sqlite"
	production := slices.Contains(productionEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.mode {
	case SchemaModeSQL:
		if sqlite {
			return plan, errors.New("DB_SCHEMA_MODE=sql needs DB_DRIVER=postgres")
		}
		plan.sql = true
	case SchemaModeAuto:
		if production && !sqlite && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %s needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.auto = true
	case SchemaModeHybrid:
		plan.sql = !sqlite
		plan.auto = sqlite || !production
	default:
		return plan, fmt.Errorf("unknown DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

// AutoMigrate creates or alters the tables of every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date the way cfg asks for.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if !plan.auto {
		return nil
	}

	attrs := []any{slog.String("mode", plan.mode), slog.String("driver", driverName(cfg))}
	if plan.mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
		observability.Logger.WarnContext(ctx, "auto-migrating with destructive changes allowed", attrs...)
	} else {
		observability.Logger.InfoContext(ctx, "auto-migrating models", attrs...)
	}
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus is what `migrate status` prints.
type SchemaStatus struct {
	Mode            string
	Environment     string
	RunsSQL         bool
	RunsAutoMigrate bool
	Applied         []int
	Pending         []Migration
}

// DescribeSchema reports the plan for cfg. Migration versions are only
// looked up when the plan includes the SQL step.
func DescribeSchema(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:            plan.mode,
		Environment:     cfg.Env,
		RunsSQL:         plan.sql,
		RunsAutoMigrate: plan.auto,
	}
	if !plan.sql {
		return status, nil
	}

	m := NewMigrator(db)
	if status.Applied, err = m.AppliedVersions(ctx); err != nil {
		return nil, err
	}
	status.Pending = m.pending(status.Applied)
	return status, nil
}
