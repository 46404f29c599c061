package model

import "gorm.io/datatypes"

// ConfigSegmentModel is one stored version of a configuration segment.
type ConfigSegmentModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Scope         string         `gorm:"column:scope;uniqueIndex:idx_segment_version,priority:1"`
	Version       string         `gorm:"column:version;uniqueIndex:idx_segment_version,priority:2"`
	VersionNum    int64          `gorm:"column:version_num;index"`
	Content       datatypes.JSON `gorm:"column:content;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (ConfigSegmentModel) TableName() string { return "configuration_segments" }
