package scoring

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
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/medml-risk-server/internal/domain"
)

// ErrArtifactNotFound is returned by an ArtifactSource for a missing artifact.
var ErrArtifactNotFound = errors.New("model artifact not found")

// ArtifactSource opens serialized model artifacts by name
type ArtifactSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads artifacts from a local directory
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid artifact name %q", name)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("opening artifact %s: %w", name, err)
	}
	return f, nil
}

func (s *DirSource) String() string { return "dir:" + s.dir }

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads artifacts from an S3 compatible bucket
type S3Source struct {
	client s3GetObjectAPI
	bucket string
	prefix string
}

// NewS3Source builds an S3 client from the default AWS credential chain.
func NewS3Source(ctx context.Context, cfg domain.S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 model source: bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Source(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Source(client s3GetObjectAPI, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string { return "s3://" + path.Join(s.bucket, s.prefix) }
