package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
)

// ErrLayerNotFound is returned when a store has no object for a layer path
var ErrLayerNotFound = errors.New("layer not found")

// LayerStore holds the simplified GeoJSON layers by relative path
type LayerStore interface {
	Open(ctx context.Context, rel string) (io.ReadCloser, int64, error)
	Put(ctx context.Context, rel string, body io.Reader, size int64) error
}

// cleanRel rejects paths that escape the store root
func cleanRel(rel string) (string, error) {
	rel = path.Clean("/" + filepath.ToSlash(rel))[1:]
	if rel == "" || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid layer path: %q", rel)
	}
	return rel, nil
}

// FileStore serves layers from a local directory
type FileStore struct {
	Root string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{Root: dir}
}

func (s *FileStore) Open(ctx context.Context, rel string) (io.ReadCloser, int64, error) {
	rel, err := cleanRel(rel)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%s: %w", rel, ErrLayerNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open layer: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat layer: %w", err)
	}
	return f, info.Size(), nil
}

func (s *FileStore) Put(ctx context.Context, rel string, body io.Reader, size int64) error {
	rel, err := cleanRel(rel)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create layer directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create layer: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write layer: %w", err)
	}
	return f.Close()
}

// S3API is the subset of the S3 client the store uses
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store serves layers from an S3 bucket under a key prefix
type S3Store struct {
	client S3API
	Bucket string
	Prefix string
}

// NewS3Store wraps a client
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
}

// NewS3StoreFromEnv loads the default AWS credential chain for a region
func NewS3StoreFromEnv(ctx context.Context, region, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no S3 layer bucket configured")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Key returns the object key of a layer path
func (s *S3Store) Key(rel string) string {
	if s.Prefix == "" {
		return rel
	}
	return s.Prefix + "/" + rel
}

func (s *S3Store) Open(ctx context.Context, rel string) (io.ReadCloser, int64, error) {
	rel, err := cleanRel(rel)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key(rel)),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, 0, fmt.Errorf("%s: %w", rel, ErrLayerNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get layer from S3: %w", err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (s *S3Store) Put(ctx context.Context, rel string, body io.Reader, size int64) error {
	rel, err := cleanRel(rel)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Key(rel)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/geo+json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// NewLayerStore picks the store named by the process config
func NewLayerStore(ctx context.Context, cfg *config.Config, p *config.Pipeline) (LayerStore, error) {
	switch cfg.LayerStore {
	case "", config.LayerStoreFile:
		return NewFileStore(p.GeoJSONDir), nil
	case config.LayerStoreS3:
		return NewS3StoreFromEnv(ctx, p.Publish.Region, p.Publish.Bucket, p.Publish.Prefix)
	}
	return nil, fmt.Errorf("unknown layer store: %s", cfg.LayerStore)
}
