package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// recordRow is one record of any collection.
type recordRow struct {
	Collection string `gorm:"primaryKey;size:32"`
	RecordKey  string `gorm:"primaryKey;size:255"`
	Data       []byte `gorm:"not null"`
	UpdatedAt  time.Time
}

func (recordRow) TableName() string { return "records" }

// SQLBackend is a GORM implementation of Backend storing every collection
// in a single records table.
type SQLBackend struct {
	db *gorm.DB
}

// OpenSQL opens the database named by driver ("sqlite" or "postgres") and
// dsn and migrates the records table.
func OpenSQL(driver, dsn string) (*SQLBackend, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewSQLBackend(db)
}

// NewSQLBackend wraps an open connection and migrates the records table.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate records table: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Exists(ctx context.Context, col Collection, key string) (bool, error) {
	var count int64
	err := b.db.WithContext(ctx).Model(&recordRow{}).
		Where("collection = ? AND record_key = ?", col.String(), key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check record %s/%s: %w", col, key, err)
	}
	return count > 0, nil
}

func (b *SQLBackend) Get(ctx context.Context, col Collection, key string) ([]byte, bool, error) {
	var row recordRow
	err := b.db.WithContext(ctx).
		First(&row, "collection = ? AND record_key = ?", col.String(), key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get record %s/%s: %w", col, key, err)
	}
	return row.Data, true, nil
}

func (b *SQLBackend) Put(ctx context.Context, col Collection, key string, data []byte) error {
	row := recordRow{Collection: col.String(), RecordKey: key, Data: data}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to put record %s/%s: %w", col, key, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, col Collection, key string) error {
	err := b.db.WithContext(ctx).
		Delete(&recordRow{}, "collection = ? AND record_key = ?", col.String(), key).Error
	if err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", col, key, err)
	}
	return nil
}

func (b *SQLBackend) Keys(ctx context.Context, col Collection) ([]string, error) {
	keys := []string{}
	err := b.db.WithContext(ctx).Model(&recordRow{}).
		Where("collection = ?", col.String()).
		Order("record_key").
		Pluck("record_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", col, err)
	}
	return keys, nil
}

func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
