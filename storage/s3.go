package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"content-hand/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// BackupPrefix ist das Präfix aller Export-Objekte im Bucket.
const BackupPrefix = "topics-backup-"

// S3API ist der Teil des S3-Clients, den die Backups brauchen.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BackupObject beschreibt ein Backup im Bucket.
type BackupObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Anbieter.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	if cfg.BackupS3URL == "" || cfg.BackupS3Bucket == "" {
		return nil, fmt.Errorf("BACKUP_S3_URL and BACKUP_S3_BUCKET are required")
	}
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.BackupS3URL,
				SigningRegion:     cfg.BackupS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.BackupS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.BackupS3Key, cfg.BackupS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// BackupKey erzeugt den Objekt-Namen für einen Export zum Zeitpunkt t.
func BackupKey(t time.Time) string {
	return fmt.Sprintf("%s%s.json", BackupPrefix, t.UTC().Format("2006-01-02T15-04-05Z"))
}

// UploadBackup lädt einen Export hoch.
func UploadBackup(ctx context.Context, client S3API, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ListBackups liefert alle Exporte, neueste zuerst.
func ListBackups(ctx context.Context, client S3API, bucket string) ([]BackupObject, error) {
	var out []BackupObject
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(BackupPrefix),
	}
	for {
		page, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			b := BackupObject{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				b.LastModified = *obj.LastModified
			}
			out = append(out, b)
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = page.NextContinuationToken
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastModified.Equal(out[j].LastModified) {
			return strings.Compare(out[i].Key, out[j].Key) > 0
		}
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// RotateBackups behält die neuesten keep Exporte und löscht den Rest.
func RotateBackups(ctx context.Context, client S3API, bucket string, keep int, log *zap.Logger) (int, error) {
	backups, err := ListBackups(ctx, client, bucket)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		log.Info("Keine Rotation nötig.", zap.Int("backups", len(backups)), zap.Int("keep", keep))
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keep:] {
		log.Info("Lösche altes Backup.", zap.String("key", b.Key))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(b.Key),
		})
		if err != nil {
			log.Error("Fehler beim Löschen des Backups.", zap.String("key", b.Key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// DownloadBackup lädt einen Export herunter.
func DownloadBackup(ctx context.Context, client S3API, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
