package detection

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ClipRecord is the database representation of a staged clip. The
// column set mirrors the clips CSV contract plus the post-processing
// variant, so pipelines can stage through SQLite instead of flat files
// and read the same records back losslessly.
type ClipRecord struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Detector      string `gorm:"index"`
	Unit          int    `gorm:"index"`
	PostProcessed bool   `gorm:"index"`
	Threshold     float64
	StartIndex    int64
	Length        int64
}

// Store persists staged clips in a SQLite database.
type Store struct {
	DB *gorm.DB
}

// OpenStore opens (or creates) the staged-clip database and runs the
// schema migration. Use ":memory:" for an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.AutoMigrate(&ClipRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate clip schema: %w", err)
	}

	return &Store{DB: db}, nil
}

// SaveClips inserts staged clip rows for one post-processing variant.
func (s *Store) SaveClips(rows []ClipRow, postProcessed bool) error {
	if s.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]ClipRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ClipRecord{
			Detector:      row.Detector,
			Unit:          row.Unit,
			PostProcessed: postProcessed,
			Threshold:     row.Threshold,
			StartIndex:    row.StartIndex,
			Length:        row.Length,
		})
	}

	return s.DB.CreateInBatches(records, 1000).Error
}

// Clips reads back the staged clips of one post-processing variant in
// the same deterministic order WriteClips uses.
func (s *Store) Clips(postProcessed bool) ([]ClipRow, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	var records []ClipRecord
	err := s.DB.
		Where("post_processed = ?", postProcessed).
		Order("detector, unit, threshold, start_index, length").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}

	rows := make([]ClipRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ClipRow{
			Detector:   rec.Detector,
			Unit:       rec.Unit,
			Threshold:  rec.Threshold,
			StartIndex: rec.StartIndex,
			Length:     rec.Length,
		})
	}
	return rows, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
