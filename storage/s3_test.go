package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

type fakeObject struct {
	data     []byte
	modified time.Time
}

// fakeS3 hält Objekte im Speicher und liefert Listen seitenweise.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	pageSize int
	now      time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  map[string]fakeObject{},
		pageSize: 2,
		now:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Hour)
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, modified: f.now}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		obj := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modified),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestBackupKey(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	if got, want := BackupKey(at), "topics-backup-2025-03-04T04-06-07Z.json"; got != want {
		t.Errorf("BackupKey() = %q, want %q", got, want)
	}
}

func TestUploadAndDownloadBackup(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	ctx := context.Background()
	if err := UploadBackup(ctx, client, "bucket", "topics-backup-a.json", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("UploadBackup() error = %v", err)
	}
	data, err := DownloadBackup(ctx, client, "bucket", "topics-backup-a.json")
	if err != nil {
		t.Fatalf("DownloadBackup() error = %v", err)
	}
	if string(data) != `[{"id":"a"}]` {
		t.Errorf("DownloadBackup() = %s", data)
	}
	if _, err := DownloadBackup(ctx, client, "bucket", "missing.json"); err == nil {
		t.Error("DownloadBackup(missing) expected error")
	}
}

func TestListAndRotateBackups(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	ctx := context.Background()
	for _, key := range []string{"topics-backup-1.json", "topics-backup-2.json", "topics-backup-3.json", "topics-backup-4.json", "topics-backup-5.json"} {
		if err := UploadBackup(ctx, client, "bucket", key, []byte("[]")); err != nil {
			t.Fatalf("UploadBackup(%s) error = %v", key, err)
		}
	}
	UploadBackup(ctx, client, "bucket", "unrelated.json", []byte("{}"))

	backups, err := ListBackups(ctx, client, "bucket")
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(backups) != 5 {
		t.Fatalf("ListBackups() returned %d backups, want 5", len(backups))
	}
	if backups[0].Key != "topics-backup-5.json" || backups[4].Key != "topics-backup-1.json" {
		t.Errorf("ListBackups() order = %v", backups)
	}
	if backups[0].Size != 2 {
		t.Errorf("Size = %d, want 2", backups[0].Size)
	}

	deleted, err := RotateBackups(ctx, client, "bucket", 2, zap.NewNop())
	if err != nil {
		t.Fatalf("RotateBackups() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("RotateBackups() deleted %d, want 3", deleted)
	}
	backups, _ = ListBackups(ctx, client, "bucket")
	if len(backups) != 2 || backups[0].Key != "topics-backup-5.json" || backups[1].Key != "topics-backup-4.json" {
		t.Errorf("remaining backups = %v", backups)
	}

	deleted, err = RotateBackups(ctx, client, "bucket", 7, zap.NewNop())
	if err != nil || deleted != 0 {
		t.Errorf("RotateBackups(keep 7) = %d, %v", deleted, err)
	}
}
