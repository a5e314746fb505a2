package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// SchemaVersion records one applied SQL migration.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName pins the bookkeeping table name.
func (SchemaVersion) TableName() string {
	return "schema_versions"
}

const createSchemaVersionsSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Checksum fingerprints the up script so edits to applied migrations are caught.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(m.UpScript)))
	return hex.EncodeToString(sum[:])
}

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, migrations: GetMigrations()}
}

// Applied lists recorded migrations in version order. A missing bookkeeping
// table means nothing has been applied yet.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaVersion, error) {
	var rows []SchemaVersion
	err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error
	if err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return rows, nil
}

// AppliedVersions is Applied reduced to version numbers.
func (m *Migrator) AppliedVersions(ctx context.Context) ([]int, error) {
	rows, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]int, len(rows))
	for i, row := range rows {
		versions[i] = row.Version
	}
	return versions, nil
}

// pending returns the registered migrations missing from applied.
func (m *Migrator) pending(applied []int) []Migration {
	var out []Migration
	for _, mig := range m.migrations {
		if !slices.Contains(applied, mig.Version) {
			out = append(out, mig)
		}
	}
	return out
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

// Up applies every pending migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.db.WithContext(ctx).Exec(createSchemaVersionsSQL).Error; err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if err := verifyApplied(applied, m.migrations); err != nil {
		return err
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}

	for i := range m.migrations {
		mig := &m.migrations[i]
		if done[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig *Migration) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.UpScript).Error; err != nil {
			return fmt.Errorf("apply %s: %w", mig, err)
		}
		row := SchemaVersion{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum()}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("record %s: %w", mig, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	observability.Logger.Info("Migration applied", slog.String("migration", mig.String()))
	return nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig := GetMigrationByVersion(version)
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", mig)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("revert %s: %w", mig, err)
		}
		return tx.Where("version = ?", version).Delete(&SchemaVersion{}).Error
	})
	if err != nil {
		return err
	}
	observability.Logger.Info("Migration rolled back", slog.String("migration", mig.String()))
	return nil
}

// verifyApplied refuses to continue when the database knows migrations the
// binary does not, or when an applied script has since been edited.
func verifyApplied(applied []SchemaVersion, registered []Migration) error {
	byVersion := make(map[int]*Migration, len(registered))
	for i := range registered {
		byVersion[registered[i].Version] = &registered[i]
	}

	var unknown, edited []string
	for _, row := range applied {
		mig, ok := byVersion[row.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", row.Version))
		case row.Checksum != "" && row.Checksum != mig.Checksum():
			edited = append(edited, mig.String())
		}
	}
	sort.Strings(unknown)

	switch {
	case len(unknown) > 0:
		return fmt.Errorf("schema_versions lists migrations missing from this build: %s", strings.Join(unknown, ", "))
	case len(edited) > 0:
		return fmt.Errorf("applied migrations were modified afterwards: %s", strings.Join(edited, ", "))
	}
	return nil
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return NewMigrator(db).Up(ctx)
}

// RollbackMigration reverts the migration with the given version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db).Down(ctx, version)
}
