// ABOUTME: Dataset sources: local CSV files and objects in S3-compatible storage
// ABOUTME: Loader caches the parsed dataset and reloads it on demand

package sales

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/2389/salesboard/internal/config"
)

// Source opens the raw CSV bytes of a dataset.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads a dataset from the local filesystem.
type FileSource struct {
	Path string
}

// Open opens the file.
func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileSource) String() string {
	return f.Path
}

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a dataset from an object in S3-compatible storage.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// Open fetches the object body.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3 object: %w", err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing s3 url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs a bucket and a key: %q", raw)
	}
	return u.Host, key, nil
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// SourceFor returns the Source for location: an s3:// URL or a file path.
func SourceFor(ctx context.Context, location string, s3cfg config.S3Config) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}

	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}
	client, err := NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return &S3Source{Client: client, Bucket: bucket, Key: key}, nil
}

// Load reads and parses the dataset from src.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer rc.Close()

	sales, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src, err)
	}

	return &Dataset{
		Sales:    sales,
		Source:   src.String(),
		LoadedAt: time.Now(),
	}, nil
}

// Loader loads a dataset once and serves the cached copy afterwards.
// A failed load is not cached.
type Loader struct {
	src    Source
	logger *slog.Logger

	mu sync.Mutex
	ds *Dataset
}

// NewLoader creates a Loader for src.
func NewLoader(src Source) *Loader {
	return &Loader{
		src:    src,
		logger: slog.Default().With("component", "sales"),
	}
}

// Dataset returns the cached dataset, loading it on first use.
func (l *Loader) Dataset(ctx context.Context) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ds != nil {
		return l.ds, nil
	}
	return l.loadLocked(ctx)
}

// Reload replaces the cached dataset with a fresh read of the source.
// On failure the previous dataset stays in place.
func (l *Loader) Reload(ctx context.Context) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

func (l *Loader) loadLocked(ctx context.Context) (*Dataset, error) {
	ds, err := Load(ctx, l.src)
	if err != nil {
		return nil, err
	}
	l.ds = ds
	l.logger.Info("sales dataset loaded", "source", ds.Source, "rows", ds.Len())
	return ds, nil
}
