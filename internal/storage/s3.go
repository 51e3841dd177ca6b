package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	Prefix     string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores uploads in a bucket; URLs point at PublicBase or the virtual-hosted bucket endpoint.
type S3 struct {
	cfg    S3Config
	client objectPutter
	Now    func() time.Time
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "uploads"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	endpoint := ""
	if cfg.Endpoint != "" {
		parsed, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("s3 endpoint: %w", err)
		}
		endpoint = parsed.String()
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{cfg: cfg, client: client, Now: time.Now}, nil
}

func (s *S3) Save(ctx context.Context, folder, filename, contentType string, body io.Reader) (Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return Object{}, err
	}
	if len(data) == 0 {
		return Object{}, ErrEmptyFile
	}
	name := ObjectName(s.Now(), filename)
	key := objectKey(s.cfg.Prefix, objectKey(folder, name))
	sum := sha256.Sum256(data)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Object{
		Key:         key,
		URL:         s.FileURL(key),
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
	}, nil
}

func (s *S3) FileURL(key string) string {
	if s.cfg.PublicBase != "" {
		return s.cfg.PublicBase + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return s.cfg.Endpoint + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
