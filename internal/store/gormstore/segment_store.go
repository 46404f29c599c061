package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clocktower/internal/store"
	storemodel "clocktower/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type segmentModel = storemodel.ConfigSegmentModel

// SegmentStore is the local stand-in for the host configuration service:
// every written version is kept in a sqlite table.
type SegmentStore struct {
	db *gorm.DB
}

var (
	_ store.ConfigStore  = (*SegmentStore)(nil)
	_ store.HistoryStore = (*SegmentStore)(nil)
)

// NewSegmentStore opens (or creates) the sqlite database at path.
func NewSegmentStore(path string) (*SegmentStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewSegmentStoreFromDB(db)
}

// NewSegmentStoreFromDB migrates and wraps an existing connection.
func NewSegmentStoreFromDB(db *gorm.DB) (*SegmentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm store: db cannot be nil")
	}
	if err := db.AutoMigrate(&segmentModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// SQLite + WAL: a couple of readers for concurrent panel requests.
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SegmentStore{db: db}, nil
}

func (s *SegmentStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Set upserts one version. Writing the same version twice replaces its content.
func (s *SegmentStore) Set(ctx context.Context, seg store.Segment) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized: %w", store.ErrUnavailable)
	}
	scope := strings.TrimSpace(seg.Scope)
	version := strings.TrimSpace(seg.Version)
	if scope == "" || version == "" {
		return fmt.Errorf("gorm store: scope and version are required")
	}
	created := seg.UpdatedAt
	if created.IsZero() {
		created = time.Now()
	}
	num, _ := strconv.ParseInt(version, 10, 64)
	m := segmentModel{
		Scope:         scope,
		Version:       version,
		VersionNum:    num,
		Content:       datatypes.JSON(seg.Content),
		CreatedAtUnix: created.UnixMilli(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "created_at"}),
		}).
		Create(&m).Error
}

// Get returns the highest version written for scope.
func (s *SegmentStore) Get(ctx context.Context, scope string) (store.Segment, bool, error) {
	if s == nil || s.db == nil {
		return store.Segment{}, false, fmt.Errorf("gorm store not initialized: %w", store.ErrUnavailable)
	}
	var m segmentModel
	err := s.db.WithContext(ctx).
		Where("scope = ?", strings.TrimSpace(scope)).
		Order("version_num DESC").Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Segment{}, false, nil
	}
	if err != nil {
		return store.Segment{}, false, err
	}
	return segmentFromModel(m), true, nil
}

// History lists stored versions of scope, newest first.
func (s *SegmentStore) History(ctx context.Context, scope string, limit int) ([]store.Segment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized: %w", store.ErrUnavailable)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []segmentModel
	if err := s.db.WithContext(ctx).
		Where("scope = ?", strings.TrimSpace(scope)).
		Order("version_num DESC").Order("id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.Segment, 0, len(models))
	for _, m := range models {
		out = append(out, segmentFromModel(m))
	}
	return out, nil
}

func (s *SegmentStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized: %w", store.ErrUnavailable)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func segmentFromModel(m segmentModel) store.Segment {
	return store.Segment{
		Scope:     m.Scope,
		Version:   m.Version,
		Content:   string(m.Content),
		UpdatedAt: time.UnixMilli(m.CreatedAtUnix),
	}
}
