// Package s3vault stores vault files and JSON documents in an S3-compatible
// bucket (AWS S3 or MinIO).
package s3vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/vault"
	"github.com/xeenaps/pkm/internal/port/filestore"
)

const keyPrefix = "vault/"

// Config holds explicit construction parameters. Empty credentials fall back
// to the default AWS credential chain.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. a MinIO URL
	PathStyle bool
	AccessKey string
	SecretKey string
}

// Store implements filestore.Store on a single bucket. Every file it writes
// reports the same node URL, which identifies the bucket.
type Store struct {
	client  *s3.Client
	bucket  string
	nodeURL string
}

var _ filestore.Store = (*Store)(nil)

// New creates a store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket required", domain.ErrValidation)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newStore(client, cfg.Bucket, nodeURL(cfg, region)), nil
}

func newStore(client *s3.Client, bucket, node string) *Store {
	return &Store{client: client, bucket: bucket, nodeURL: node}
}

func nodeURL(cfg Config, region string) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return "https://" + cfg.Bucket + ".s3." + region + ".amazonaws.com"
}

// NodeURL returns the node URL stamped on every stored file.
func (s *Store) NodeURL() string { return s.nodeURL }

// Upload writes f under a fresh key that keeps the original extension.
func (s *Store) Upload(ctx context.Context, f filestore.Upload) (vault.Ref, error) {
	key := keyPrefix + uuid.NewString() + strings.ToLower(path.Ext(f.Name))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Data),
		ContentLength: aws.Int64(int64(len(f.Data))),
		Metadata:      map[string]string{"filename": f.Name},
	}
	if f.MimeType != "" {
		input.ContentType = aws.String(f.MimeType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return vault.Ref{}, fmt.Errorf("s3 put %s: %w", f.Name, wrap(err))
	}
	return vault.Ref{FileID: key, NodeURL: s.nodeURL}, nil
}

// Fetch reads a stored object.
func (s *Store) Fetch(ctx context.Context, ref vault.Ref) ([]byte, error) {
	if err := s.own(ref); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.FileID),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", ref.FileID, wrap(err))
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", ref.FileID, err)
	}
	return data, nil
}

// Delete removes a stored object. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, ref vault.Ref) error {
	if err := s.own(ref); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.FileID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", ref.FileID, wrap(err))
	}
	return nil
}

// own rejects refs written by another storage node.
func (s *Store) own(ref vault.Ref) error {
	if !ref.Valid() {
		return fmt.Errorf("%w: file reference is incomplete", domain.ErrValidation)
	}
	if ref.NodeURL != s.nodeURL || !strings.HasPrefix(ref.FileID, keyPrefix) {
		return fmt.Errorf("%w: file %s is not stored in bucket %s", domain.ErrValidation, ref.FileID, s.bucket)
	}
	return nil
}

func wrap(err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
}
