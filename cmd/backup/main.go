package main

import (
	"context"
	"log"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inkwell/config"
	"inkwell/services"
	"inkwell/storage"
)

// RetentionConfig is the tool's own knob; database and S3 settings come
// from the shared server configuration. The tool runs standalone,
// typically from a cron container, and shares no process state with the
// server.
type RetentionConfig struct {
	KeepArchives int `envconfig:"KEEP_ARCHIVES" default:"8"`
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	logging.Info("Starting search-log archive maintenance...")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	var retention RetentionConfig
	if err := envconfig.Process("", &retention); err != nil {
		logging.Fatal("Retention config error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	ctx := context.Background()

	// Same sweep the in-server cron job runs; doing it here too means a
	// stopped server never lets the search_logs table grow unbounded.
	archiver := services.NewSearchLogArchiver(cfg, db, s3Client, logging)
	count, err := archiver.Run(ctx)
	if err != nil {
		logging.Fatal("Search-log archival failed", zap.Error(err))
	}
	logging.Info("Archival sweep completed", zap.Int("archived_rows", count))

	if err := pruneArchives(ctx, s3Client, cfg.S3Bucket, retention.KeepArchives, logging); err != nil {
		logging.Fatal("Archive pruning failed", zap.Error(err))
	}

	logging.Info("Archive maintenance finished.")
}

// pruneArchives keeps the newest keep objects under the search-log
// archive prefix and deletes the rest. A failed delete is logged and
// skipped so one bad object never aborts the run.
func pruneArchives(ctx context.Context, client *s3.Client, bucket string, keep int, logging *zap.Logger) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(services.ArchivePrefix),
	})
	if err != nil {
		return err
	}

	stale := pruneCandidates(output.Contents, keep)
	if len(stale) == 0 {
		logging.Info("No archives past the retention count.", zap.Int("keep", keep))
		return nil
	}

	for _, key := range stale {
		logging.Info("Deleting old search-log archive", zap.String("key", key))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			logging.Warn("Failed to delete archive", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// pruneCandidates returns the keys of every object beyond the newest
// keep, newest first.
func pruneCandidates(objects []types.Object, keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return nil
	}

	sorted := make([]types.Object, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(*sorted[j].LastModified)
	})

	keys := make([]string, 0, len(sorted)-keep)
	for _, obj := range sorted[keep:] {
		keys = append(keys, *obj.Key)
	}
	return keys
}
