package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
	pages        int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	f.contentTypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// ListObjectsV2 returns one key per page to exercise pagination
func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.pages++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return &s3.ListObjectsV2Output{}, nil
	}
	first := keys[0]
	for _, k := range keys {
		if k < first {
			first = k
		}
	}
	out := &s3.ListObjectsV2Output{Contents: []types.Object{{Key: aws.String(first)}}}
	if len(keys) > 1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(first)
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, "recipes", "http://minio:9000/recipes/")

	require.NoError(t, s.Save(ctx, "uploads/recipe/a.png", strings.NewReader("a"), "image/png"))
	require.NoError(t, s.Save(ctx, "uploads/recipe/b.png", strings.NewReader("b"), "image/png"))
	assert.Equal(t, "image/png", fake.contentTypes["uploads/recipe/a.png"])

	keys, err := s.List(ctx, "uploads/recipe/")
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/recipe/a.png", "uploads/recipe/b.png"}, keys)
	assert.Equal(t, 2, fake.pages)

	require.NoError(t, s.Delete(ctx, "uploads/recipe/a.png"))
	assert.NotContains(t, fake.objects, "uploads/recipe/a.png")

	assert.Equal(t, "http://minio:9000/recipes/uploads/recipe/b.png", s.URL("uploads/recipe/b.png"))
}
