package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// snapshotPrefix namespaces profile records inside the bucket.
const snapshotPrefix = "snapshots/"

// SnapshotStorage archives profile records in an S3-compatible bucket
type SnapshotStorage interface {
	UploadSnapshot(ctx context.Context, name string, data []byte) error
	DownloadSnapshot(ctx context.Context, name string) ([]byte, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)
	GenerateDownloadURL(ctx context.Context, name string) (string, error)
}

// SnapshotInfo describes one archived record
type SnapshotInfo struct {
	Name         string
	SizeBytes    int64
	LastModified time.Time
}

type snapshotStorage struct {
	client    *s3.Client
	bucket    string
	urlExpiry time.Duration
	endpoint  string // For MinIO compatibility
}

// S3Config holds configuration for snapshot storage
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewSnapshotStorage creates a new snapshot storage instance
func NewSnapshotStorage(cfg S3Config) (SnapshotStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	var client *s3.Client

	if cfg.Endpoint != "" {
		// MinIO configuration
		loadOpts = append(loadOpts, config.WithRegion("us-east-1")) // MinIO doesn't care about region
		awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}

		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		// AWS S3 configuration
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3.NewFromConfig(awsCfg)
	}

	return &snapshotStorage{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: 24 * time.Hour,
		endpoint:  cfg.Endpoint,
	}, nil
}

// UploadSnapshot stores an encoded record under the snapshot prefix
func (s *snapshotStorage) UploadSnapshot(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(snapshotPrefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

// DownloadSnapshot retrieves an archived record by name
func (s *snapshotStorage) DownloadSnapshot(ctx context.Context, name string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotPrefix + name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	return data, nil
}

// ListSnapshots returns every archived record, newest first
func (s *snapshotStorage) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	snapshots := []SnapshotInfo{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(snapshotPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			info := SnapshotInfo{
				Name: strings.TrimPrefix(aws.ToString(obj.Key), snapshotPrefix),
			}
			if obj.Size != nil {
				info.SizeBytes = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.UTC()
			}
			snapshots = append(snapshots, info)
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].LastModified.After(snapshots[j].LastModified)
	})
	return snapshots, nil
}

// GenerateDownloadURL generates a pre-signed URL for fetching a snapshot
func (s *snapshotStorage) GenerateDownloadURL(ctx context.Context, name string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotPrefix + name),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.urlExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return request.URL, nil
}
