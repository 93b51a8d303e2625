package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell/config"
	"inkwell/models"
	"inkwell/storage"
)

// ArchivePrefix is the object-key prefix archive uploads are written
// under. The backup tool prunes the same prefix.
const ArchivePrefix = "search-logs/"

// SearchLogArchiver moves search-log rows past the retention window into
// S3 (gzip'd JSON lines) and prunes them from the database. Driven by the
// cron schedule in main.
type SearchLogArchiver struct {
	Config   *config.Config
	DB       *gorm.DB
	S3Client *s3.Client
	Logger   *zap.Logger
}

// NewSearchLogArchiver creates a new SearchLogArchiver.
func NewSearchLogArchiver(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger) *SearchLogArchiver {
	return &SearchLogArchiver{Config: cfg, DB: db, S3Client: s3Client, Logger: logger}
}

// Run archives and prunes one batch. Returns the number of rows archived.
// Rows are only deleted after the upload succeeded.
func (a *SearchLogArchiver) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -a.Config.SearchLogRetentionDays)

	var logs []models.SearchLog
	if err := a.DB.Where("created_at < ?", cutoff).Order("created_at ASC").Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("fetch expired search logs: %w", err)
	}
	if len(logs) == 0 {
		a.Logger.Info("No expired search logs to archive.")
		return 0, nil
	}

	data, err := encodeLogs(logs)
	if err != nil {
		return 0, fmt.Errorf("encode search logs: %w", err)
	}

	key := fmt.Sprintf("%ssearch-logs-%s.jsonl.gz", ArchivePrefix, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	link, err := storage.UploadObject(ctx, a.S3Client, a.Config.S3Bucket, key, data, a.Config)
	if err != nil {
		return 0, fmt.Errorf("upload search log archive: %w", err)
	}
	a.Logger.Info("Search log archive uploaded",
		zap.String("link", link),
		zap.Int("rows", len(logs)))

	if err := a.DB.Where("created_at < ?", cutoff).Delete(&models.SearchLog{}).Error; err != nil {
		return 0, fmt.Errorf("prune archived search logs: %w", err)
	}
	return len(logs), nil
}

// encodeLogs renders the rows as gzip'd JSON lines.
func encodeLogs(logs []models.SearchLog) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, entry := range logs {
		if err := enc.Encode(entry); err != nil {
			return nil, err
		}
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
