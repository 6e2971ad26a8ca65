package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3API is the subset of *s3.Client the provider uses.
type s3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config locates the bucket. Endpoint is set for MinIO and other
// S3-compatible servers.
type S3Config struct {
	Bucket      string
	Region      string
	Endpoint    string
	AccessKeyID string
	Prefix      string
}

// SecretFunc resolves the secret access key for an access key id.
type SecretFunc func(accessKeyID string) (string, error)

// S3Provider stores backups as objects in an S3 bucket.
type S3Provider struct {
	cfg    S3Config
	secret SecretFunc

	mu  sync.Mutex
	api s3API
}

func NewS3Provider(cfg S3Config, secret SecretFunc) *S3Provider {
	return &S3Provider{cfg: cfg, secret: secret}
}

func (p *S3Provider) Kind() models.CloudProvider { return models.ProviderS3 }

func (p *S3Provider) client(ctx context.Context) (s3API, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.api != nil {
		return p.api, nil
	}

	if p.cfg.Bucket == "" || p.cfg.AccessKeyID == "" {
		return nil, apperrors.Validation("cloud.S3", "bucket and access key id must be configured")
	}
	secret, err := p.secret(p.cfg.AccessKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 secret key: %w", err)
	}

	region := p.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.AccessKeyID,
			secret,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	p.api = newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if p.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return p.api, nil
}

func (p *S3Provider) key(name string) string {
	prefix := strings.Trim(p.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Authorize checks that the bucket is reachable with the configured credentials.
func (p *S3Provider) Authorize(ctx context.Context) (Account, error) {
	api, err := p.client(ctx)
	if err != nil {
		return Account{}, err
	}
	if _, err := api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.cfg.Bucket)}); err != nil {
		return Account{}, fmt.Errorf("bucket %q is not accessible: %w", p.cfg.Bucket, err)
	}
	return Account{UserID: p.cfg.AccessKeyID}, nil
}

func (p *S3Provider) Upload(ctx context.Context, name string, data []byte) error {
	api, err := p.client(ctx)
	if err != nil {
		return err
	}
	_, err = api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(p.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (p *S3Provider) Download(ctx context.Context, name string) ([]byte, error) {
	api, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(p.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, apperrors.NotFound("cloud.Download", "remote backup", name)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
