package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a CSV object from Amazon S3.
type S3Source struct {
	Bucket string
	Key    string

	client objectGetter
}

// NewS3Source resolves credentials through the default AWS chain, optionally
// pinned to a shared-config profile.
func NewS3Source(ctx context.Context, bucket, key, region, profile string) (*S3Source, error) {
	name := "s3://" + bucket + "/" + key
	if bucket == "" || key == "" {
		return nil, newLoadError(KindNotFound, name, errors.New("s3 uri must be s3://bucket/key"))
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, newLoadError(KindNetworkFailure, name, fmt.Errorf("load aws config: %w", err))
	}

	return &S3Source{Bucket: bucket, Key: key, client: s3.NewFromConfig(cfg)}, nil
}

func (s *S3Source) Name() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

func (s *S3Source) Open(ctx context.Context) (Table, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return Table{}, newLoadError(s3ErrorKind(err), s.Name(), err)
	}
	defer out.Body.Close()

	table, err := ReadCSV(out.Body)
	if err != nil {
		return Table{}, newLoadError(KindParseFailure, s.Name(), err)
	}
	return table, nil
}

// s3ErrorKind maps a GetObject failure to a load error kind. Missing objects
// and buckets, and keys hidden by access policy, count as not found.
func s3ErrorKind(err error) ErrorKind {
	var noKey *s3types.NoSuchKey
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket", "AccessDenied":
			return KindNotFound
		}
	}
	return KindNetworkFailure
}
