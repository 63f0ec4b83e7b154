package audiostash

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// DefaultBucket is the bucket audio files go to unless configured otherwise
const DefaultBucket = "audio_files"

var (
	// ErrEmptyKey is returned when a name sanitizes to an empty object key
	ErrEmptyKey = errors.New("object key is empty after sanitization")
	// ErrBucketNotFound is returned when the bucket is missing and can't be created
	ErrBucketNotFound = errors.New("bucket not found")
)

// ObjectStore is the part of the storage backend the uploader needs
type ObjectStore interface {
	ListBuckets(ctx context.Context) ([]Bucket, error)
	CreateBucket(ctx context.Context, name string, public bool) error
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) (*UploadResult, error)
	PublicURL(bucket, key string, result *UploadResult) string
}

// Uploader puts audio files into a single bucket
type Uploader struct {
	store  ObjectStore
	bucket string
	public bool
}

// NewUploader creates an uploader for bucket. Buckets it creates are public.
func NewUploader(store ObjectStore, bucket string) *Uploader {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Uploader{store: store, bucket: bucket, public: true}
}

// Bucket returns the bucket the uploader writes to
func (u *Uploader) Bucket() string {
	return u.bucket
}

// EnsureBucket checks the backend is reachable and the bucket exists,
// creating it when missing.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	buckets, err := u.store.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	log.Infof("Connection test successful. Available buckets: %d", len(buckets))

	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.Name == u.bucket {
			log.Infof("Bucket '%s' exists", u.bucket)
			return nil
		}
		names = append(names, b.Name)
	}

	log.Warnf("Bucket '%s' not found. Available buckets: %v", u.bucket, names)
	if err := u.store.CreateBucket(ctx, u.bucket, u.public); err != nil {
		ErrorsTotalMetric.Inc()
		return fmt.Errorf("%w: failed to create '%s': %v", ErrBucketNotFound, u.bucket, err)
	}
	log.Infof("Created bucket '%s'", u.bucket)
	return nil
}

// UploadFile uploads the file at localPath under the sanitized form of name
// and returns its public URL. An existing object with the same key is
// overwritten.
func (u *Uploader) UploadFile(ctx context.Context, localPath, name string) (string, error) {
	if !FileExists(localPath) {
		ErrorsTotalMetric.Inc()
		return "", fmt.Errorf("file not found: %s", localPath)
	}

	key := SanitizeKey(name)
	if key == "" {
		ErrorsTotalMetric.Inc()
		return "", fmt.Errorf("%w: %q", ErrEmptyKey, name)
	}
	if key != name {
		SanitizedKeysMetric.Inc()
		log.Infof("Sanitized key: '%s' -> '%s'", LogSafe(name), key)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		ErrorsTotalMetric.Inc()
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	return u.UploadBytes(ctx, key, data)
}

// UploadBytes uploads data under key, which must already be sanitized
func (u *Uploader) UploadBytes(ctx context.Context, key string, data []byte) (string, error) {
	logger := log.WithFields(log.Fields{
		"key":    key,
		"bucket": u.bucket,
		"size":   humanize.Bytes(uint64(len(data))),
	})
	logger.Info("Uploading")

	contentType := ContentTypeFor(key)
	result, err := u.store.Upload(ctx, u.bucket, key, data, contentType, false)
	if errors.Is(err, ErrDuplicate) {
		logger.Warn("File exists, attempting upsert")
		result, err = u.store.Upload(ctx, u.bucket, key, data, contentType, true)
		if err != nil {
			ErrorsTotalMetric.Inc()
			return "", fmt.Errorf("upsert failed for %s: %w", key, err)
		}
		upsertsCountMetric.Inc()
	} else if err != nil {
		ErrorsTotalMetric.Inc()
		return "", fmt.Errorf("upload failed for %s: %w", key, err)
	}
	if result == nil {
		ErrorsTotalMetric.Inc()
		return "", fmt.Errorf("upload failed for %s: %w", key, ErrEmptyResult)
	}

	uploadsCountMetric.Inc()
	publicURL := u.store.PublicURL(u.bucket, key, result)
	logger.WithField("url", publicURL).Info("Upload successful")
	return publicURL, nil
}

// UploadAudio uploads a local audio file using credentials from the
// environment and returns its public URL.
func UploadAudio(ctx context.Context, localPath, name string) (string, error) {
	creds, err := CredentialsFromEnv()
	if err != nil {
		return "", err
	}

	uploader := NewUploader(NewStorageClient(creds.URL, creds.Key), DefaultBucket)
	if err := uploader.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("cannot connect to storage: %w", err)
	}

	publicURL, err := uploader.UploadFile(ctx, localPath, name)
	if err != nil {
		return "", fmt.Errorf("cannot upload audio file %s: %w", name, err)
	}
	log.Infof("File uploaded successfully: %s", publicURL)
	return publicURL, nil
}
