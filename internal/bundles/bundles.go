// Package bundles stores uploaded FHIR bundles in S3.
package bundles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fhirfly-backend/internal/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client objectPutter
	bucket string
}

// NewUploader builds an S3 uploader from the default AWS credential chain.
// With no bucket it returns an uploader that rejects every upload.
func NewUploader(ctx context.Context, bucket, region string) (*Uploader, error) {
	if bucket == "" {
		return &Uploader{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})
	return &Uploader{client: client, bucket: bucket}, nil
}

func (u *Uploader) Enabled() bool {
	return u != nil && u.client != nil && u.bucket != ""
}

// Upload validates that body is a FHIR Bundle and stores it under
// bundles/<owner>/<uuid>.json, returning the object key.
func (u *Uploader) Upload(ctx context.Context, owner string, body []byte) (string, error) {
	if !u.Enabled() {
		return "", apperrors.NewUnavailableError("Bundle storage not configured")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", apperrors.NewValidationError("Bundle must be a JSON object")
	}
	if rt, _ := doc["resourceType"].(string); rt != "Bundle" {
		return "", apperrors.NewValidationError("resourceType must be Bundle")
	}

	key := fmt.Sprintf("bundles/%s/%s.json", owner, uuid.New())
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/fhir+json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", apperrors.NewExternalError("Failed to store bundle", err)
	}
	return key, nil
}
