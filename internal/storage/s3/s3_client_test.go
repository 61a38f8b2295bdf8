package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintake/internal/config"
	"salesintake/internal/port"
)

type fakeUploader struct {
	got  *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.got = in
	b, _ := io.ReadAll(in.Body)
	f.body = b
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Location: "https://bucket.s3/" + *in.Key, ETag: aws.String(`"etag"`)}, nil
}

func TestUpload_PassesMetadataAndReportsProgress(t *testing.T) {
	fu := &fakeUploader{}
	c := &s3Client{bucket: "member-uploads", uploader: fu}

	var progress []int64
	out, err := c.Upload(context.Background(), port.UploadInput{
		Key:         "2025/03/01/x_a.csv",
		Body:        strings.NewReader(strings.Repeat("a", 10000)),
		ContentType: "text/csv",
		Size:        10000,
		Metadata:    map[string]string{"uploadedby": "ana"},
		OnProgress:  func(sent int64) { progress = append(progress, sent) },
	})

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3/2025/03/01/x_a.csv", out.Location)
	assert.Equal(t, `"etag"`, out.ETag)
	assert.Equal(t, "member-uploads", *fu.got.Bucket)
	assert.Equal(t, "ana", fu.got.Metadata["uploadedby"])
	assert.Equal(t, int64(10000), *fu.got.ContentLength)
	assert.Len(t, fu.body, 10000)
	require.NotEmpty(t, progress)
	assert.Equal(t, int64(10000), progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestUpload_Error(t *testing.T) {
	c := &s3Client{bucket: "b", uploader: &fakeUploader{err: errors.New("denied")}}
	_, err := c.Upload(context.Background(), port.UploadInput{Key: "k", Body: bytes.NewReader(nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 upload: denied")
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(&config.StorageConfig{Region: "us-east-1"})
	assert.Error(t, err)
}
