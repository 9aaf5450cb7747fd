// Package samples retains uploaded scan samples in S3-compatible object
// storage so flagged files can be re-examined later.
package samples

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store uploads sample bytes to a single bucket under dated, unguessable
// keys.
type Store struct {
	region       string
	user         string
	password     string
	bucket       string
	baseEndpoint string
}

func NewStore(region, user, password, bucket, baseEndpoint string) *Store {
	return &Store{
		region:       region,
		user:         user,
		password:     password,
		bucket:       bucket,
		baseEndpoint: baseEndpoint,
	}
}

func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.user,
			s.password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.baseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Put stores the sample and returns its storage key.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	key := randomStorageKey()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}

	return key, nil
}
