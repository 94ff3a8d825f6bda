// Package assetcheck verifies that asset files exist in object storage.
package assetcheck

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/multiformats/go-multihash"

	"github.com/robert-malhotra/go-stac-api/internal/config"
	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/metrics"
	"github.com/robert-malhotra/go-stac-api/internal/validation"
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// Checker verifies the file behind an asset before it is stored.
type Checker interface {
	Check(ctx context.Context, a *stac.Asset) error
}

// Noop accepts every asset.
type Noop struct{}

func (Noop) Check(context.Context, *stac.Asset) error { return nil }

// HeadObjectAPI is the part of the S3 client used by S3.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 checks that {collection}/{item}/{asset} exists in a bucket and that its
// sha256 metadata, when present, matches the asset checksum.
type S3 struct {
	client HeadObjectAPI
	bucket string
}

// NewS3 returns a checker using client.
func NewS3(client HeadObjectAPI, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// New builds the checker selected by cfg. Extra options are passed to the
// AWS config loader.
func New(ctx context.Context, cfg config.AssetsConfig, optFns ...func(*awsconfig.LoadOptions) error) (Checker, error) {
	if !cfg.S3Check {
		return Noop{}, nil
	}
	if cfg.Region != "" {
		optFns = append([]func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}, optFns...)
	}
	if cfg.AccessKeyID != "" {
		provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		optFns = append([]func(*awsconfig.LoadOptions) error{awsconfig.WithCredentialsProvider(provider)}, optFns...)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3(client, cfg.Bucket), nil
}

func (c *S3) Check(ctx context.Context, a *stac.Asset) error {
	key := a.ObjectKey()
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			metrics.AssetChecks.WithLabelValues("missing").Inc()
			return apierr.Validationf("href: Asset file %s does not exist.", key)
		}
		metrics.AssetChecks.WithLabelValues("error").Inc()
		return fmt.Errorf("head object %s: %w", key, err)
	}

	want := out.Metadata["sha256"]
	if want == "" || a.ChecksumMultihash == "" {
		metrics.AssetChecks.WithLabelValues("ok").Inc()
		return nil
	}
	mh, err := validation.DecodeMultihash(a.ChecksumMultihash)
	if err != nil || mh.Code != multihash.SHA2_256 {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("asset checksum is not sha2-256, skipping digest comparison")
		metrics.AssetChecks.WithLabelValues("ok").Inc()
		return nil
	}
	if got := hex.EncodeToString(mh.Digest); !strings.EqualFold(got, want) {
		metrics.AssetChecks.WithLabelValues("mismatch").Inc()
		return apierr.Validationf("checksum:multihash: Asset file checksum %s does not match the stored file checksum %s.", got, want)
	}
	metrics.AssetChecks.WithLabelValues("ok").Inc()
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
