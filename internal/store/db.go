package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Company{}, &CheckBatch{}, &BatchName{}, &CheckResult{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertCompany inserts or updates a single company master row.
func (d *Database) UpsertCompany(company *Company) error {
	if company == nil || strings.TrimSpace(company.CIN) == "" {
		return errors.New("company requires a CIN")
	}
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cin"}},
		UpdateAll: true,
	}).Create(company).Error
}

// UpsertCompanies bulk-inserts company rows in chunks, updating on CIN
// conflict. Used by the ingest command.
func (d *Database) UpsertCompanies(companies []Company, chunkSize int) (int, error) {
	if len(companies) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	total := 0
	for start := 0; start < len(companies); start += chunkSize {
		end := start + chunkSize
		if end > len(companies) {
			end = len(companies)
		}
		chunk := companies[start:end]
		if err := d.gorm.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cin"}},
			UpdateAll: true,
		}).Create(&chunk).Error; err != nil {
			return total, fmt.Errorf("upsert companies: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}

// CountCompanies returns the number of stored company master rows.
func (d *Database) CountCompanies() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Company{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchCompanies retrieves companies whose normalized name contains any of
// the supplied tokens. The result pool is bounded by limit; scoring and
// classification happen in the engine, not here.
func (d *Database) SearchCompanies(tokens []string, limit int) ([]Company, error) {
	if limit <= 0 {
		limit = 50
	}
	var cleaned []string
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" {
			cleaned = append(cleaned, token)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	query := d.gorm.Model(&Company{})
	condition := d.gorm.Where("name_normalized LIKE ?", "%"+cleaned[0]+"%").
		Or("name_squashed LIKE ?", "%"+cleaned[0]+"%")
	for _, token := range cleaned[1:] {
		condition = condition.Or("name_normalized LIKE ?", "%"+token+"%").
			Or("name_squashed LIKE ?", "%"+token+"%")
	}

	var companies []Company
	if err := query.Where(condition).Limit(limit).Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	return companies, nil
}

// SaveCheckResult inserts or replaces the stored result for the candidate
// name within its batch.
func (d *Database) SaveCheckResult(result *CheckResult) error {
	if result == nil {
		return errors.New("check result is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var existing CheckResult
	err := d.gorm.Where("batch_id = ? AND name_normalized = ?", result.BatchID, result.NameNormalized).
		First(&existing).Error
	switch {
	case err == nil:
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		return d.gorm.Save(result).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return d.gorm.Create(result).Error
	default:
		return err
	}
}

// ListBatchResults returns the persisted results for a batch in insertion
// order.
func (d *Database) ListBatchResults(batchID uint) ([]CheckResult, error) {
	var results []CheckResult
	if err := d.gorm.Where("batch_id = ?", batchID).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CountBatchResults returns the number of stored results for a batch.
func (d *Database) CountBatchResults(batchID uint) (int, error) {
	var count int64
	if err := d.gorm.Model(&CheckResult{}).Where("batch_id = ?", batchID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// CheckedNamesForBatch lists the normalized names already checked for a
// batch, used to resume interrupted runs.
func (d *Database) CheckedNamesForBatch(batchID uint) ([]string, error) {
	var names []string
	err := d.gorm.Model(&CheckResult{}).
		Where("batch_id = ?", batchID).
		Pluck("name_normalized", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CreateBatch registers a new candidate-name batch.
func (d *Database) CreateBatch(name, owner, filename string) (*CheckBatch, error) {
	batch := &CheckBatch{
		Name:             name,
		Owner:            owner,
		OriginalFilename: filename,
	}
	if err := d.gorm.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return batch, nil
}

// GetBatch loads a single batch by ID.
func (d *Database) GetBatch(batchID uint) (*CheckBatch, error) {
	var batch CheckBatch
	if err := d.gorm.First(&batch, batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatches returns batches newest first along with the total count.
func (d *Database) ListBatches(offset, limit int) ([]CheckBatch, int64, error) {
	var total int64
	if err := d.gorm.Model(&CheckBatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	var batches []CheckBatch
	err := d.gorm.Order("created_at DESC").Offset(offset).Limit(limit).Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// UpdateBatchStats refreshes the row statistics captured at upload time.
func (d *Database) UpdateBatchStats(batchID uint, rowCount, uniqueNames, duplicateRows int) error {
	return d.gorm.Model(&CheckBatch{}).Where("id = ?", batchID).Updates(map[string]any{
		"row_count":      rowCount,
		"unique_names":   uniqueNames,
		"duplicate_rows": duplicateRows,
	}).Error
}

// ReplaceBatchNames swaps the candidate rows associated with a batch.
func (d *Database) ReplaceBatchNames(batchID uint, rows []BatchName) error {
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", batchID).Delete(&BatchName{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].BatchID = batchID
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

// ListBatchNames pages through the candidate names of a batch.
func (d *Database) ListBatchNames(batchID uint, offset, limit int) ([]BatchName, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []BatchName
	err := d.gorm.Where("batch_id = ?", batchID).
		Order("row_index ASC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountBatchNames returns the number of candidate names in a batch.
func (d *Database) CountBatchNames(batchID uint) (int, error) {
	var count int64
	if err := d.gorm.Model(&BatchName{}).Where("batch_id = ?", batchID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// UpdateBatchProcessingInfo recomputes processed counts after a run.
func (d *Database) UpdateBatchProcessingInfo(batchID uint) error {
	processed, err := d.CountBatchResults(batchID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return d.gorm.Model(&CheckBatch{}).Where("id = ?", batchID).Updates(map[string]any{
		"processed_names": processed,
		"last_checked_at": &now,
	}).Error
}
