package bundles

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"fhirfly-backend/internal/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestUploadStoresBundle(t *testing.T) {
	fake := &fakeS3{}
	u := &Uploader{client: fake, bucket: "fhir-bundles"}

	body := `{"resourceType":"Bundle","type":"collection","entry":[]}`
	key, err := u.Upload(context.Background(), "12345678901234", []byte(body))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "bundles/12345678901234/"))
	assert.True(t, strings.HasSuffix(key, ".json"))
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "fhir-bundles", aws.ToString(fake.inputs[0].Bucket))
	assert.Equal(t, key, aws.ToString(fake.inputs[0].Key))
	assert.JSONEq(t, body, fake.bodies[0])
}

func TestUploadRejectsNonBundles(t *testing.T) {
	u := &Uploader{client: &fakeS3{}, bucket: "b"}

	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"array", `[]`},
		{"patient", `{"resourceType":"Patient"}`},
		{"missing type", `{"entry":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Upload(context.Background(), "owner", []byte(tt.body))
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestUploadWithoutBucket(t *testing.T) {
	u, err := NewUploader(context.Background(), "", "ap-south-1")
	require.NoError(t, err)
	assert.False(t, u.Enabled())

	_, err = u.Upload(context.Background(), "owner", []byte(`{"resourceType":"Bundle"}`))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}

func TestUploadStorageFailure(t *testing.T) {
	u := &Uploader{client: &fakeS3{err: errors.New("access denied")}, bucket: "b"}
	_, err := u.Upload(context.Background(), "owner", []byte(`{"resourceType":"Bundle"}`))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}
