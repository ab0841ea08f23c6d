// Package remote opens readers and writers for local paths, file://,
// http(s):// and s3:// locations.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config carries optional S3 settings. Empty fields fall back to the AWS
// default credential chain.
type S3Config struct {
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Region    string `yaml:"region" env:"S3_REGION"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"` // S3-compatible endpoint
}

type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeLocal Scheme = "local" // no scheme, local path
)

var ErrReadOnly = errors.New("location does not support writing")

func DetectScheme(location string) Scheme {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return SchemeS3
	case strings.HasPrefix(lower, "https://"):
		return SchemeHTTPS
	case strings.HasPrefix(lower, "http://"):
		return SchemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return SchemeFile
	default:
		return SchemeLocal
	}
}

func OpenReader(ctx context.Context, location string, cfg *S3Config) (io.ReadCloser, error) {
	switch scheme := DetectScheme(location); scheme {
	case SchemeLocal, SchemeFile:
		return osOpen(localPath(location, scheme))
	case SchemeHTTP, SchemeHTTPS:
		return openHTTPReader(ctx, location)
	case SchemeS3:
		return openS3Reader(ctx, location, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", location)
	}
}

// OpenWriter returns a writer whose content is stored on Close.
func OpenWriter(ctx context.Context, location string, cfg *S3Config) (io.WriteCloser, error) {
	switch scheme := DetectScheme(location); scheme {
	case SchemeLocal, SchemeFile:
		return osCreate(localPath(location, scheme))
	case SchemeHTTP, SchemeHTTPS:
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, location)
	case SchemeS3:
		return openS3Writer(ctx, location, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", location)
	}
}

// ReadAll reads the whole object at location.
func ReadAll(ctx context.Context, location string, cfg *S3Config) ([]byte, error) {
	reader, err := OpenReader(ctx, location, cfg)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func localPath(location string, scheme Scheme) string {
	if scheme == SchemeFile {
		return location[len("file://"):]
	}
	return location
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(url string) (bucket, key string, err error) {
	path := url[len("s3://"):]
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return bucket, key, nil
}

func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg != nil && cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg != nil && cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(ctx context.Context, url string, cfg *S3Config) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	return resp.Body, nil
}

// s3Writer buffers the object and uploads it on Close.
type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buffer bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("writer is closed")
	}
	return w.buffer.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buffer.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func openS3Writer(ctx context.Context, url string, cfg *S3Config) (io.WriteCloser, error) {
	bucket, key, err := ParseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &s3Writer{ctx: ctx, client: client, bucket: bucket, key: key}, nil
}

// osOpen and osCreate are swapped in tests.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var osCreate = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
