package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadAndDelete(t *testing.T) {
	api := &fakeAPI{}
	st := NewWithAPI(api, Config{Bucket: "bloomi-images", Region: "ap-northeast-2", PublicRead: true})

	url, err := st.Upload(context.Background(), []byte("img"), "image/jpeg", "meals/u1/2025/11/03/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://bloomi-images.s3.ap-northeast-2.amazonaws.com/meals/u1/2025/11/03/a.jpg", url)

	require.NotNil(t, api.put)
	assert.Equal(t, "bloomi-images", aws.ToString(api.put.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(api.put.ContentType))
	assert.Equal(t, s3types.ObjectCannedACLPublicRead, api.put.ACL)
	assert.Equal(t, []byte("img"), api.body)

	require.NoError(t, st.Delete(context.Background(), url))
	assert.Equal(t, []string{"meals/u1/2025/11/03/a.jpg"}, api.deleted)
}

func TestKeyFromURL(t *testing.T) {
	st := NewWithAPI(&fakeAPI{}, Config{Bucket: "b", PublicBaseURL: "https://cdn.bloomi.app/"})

	cases := map[string]string{
		"https://cdn.bloomi.app/meals/u1/2025/11/03/a.jpg":          "meals/u1/2025/11/03/a.jpg",
		"https://cdn.bloomi.app/meals/u%201/a.jpg":                  "meals/u 1/a.jpg",
		"https://cdn.bloomi.app/meals/u1/a.jpg?X-Amz-Signature=abc": "meals/u1/a.jpg",
	}
	for in, want := range cases {
		got, err := st.KeyFromURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"https://evil.test/meals/a.jpg", "https://cdn.bloomi.app/", ""} {
		_, err := st.KeyFromURL(bad)
		assert.ErrorIs(t, err, ErrForeignURL, bad)
	}
}

func TestEndpointBaseURL(t *testing.T) {
	st := NewWithAPI(&fakeAPI{}, Config{Bucket: "meals", Endpoint: "http://localhost:9000/"})
	assert.Equal(t, "http://localhost:9000/meals/k.jpg", st.URL("k.jpg"))
}

func TestUploadError(t *testing.T) {
	api := &fakeAPI{err: errors.New("access denied")}
	st := NewWithAPI(api, Config{Bucket: "b", Region: "us-east-1"})

	_, err := st.Upload(context.Background(), []byte("x"), "image/png", "k.png")
	assert.ErrorContains(t, err, "access denied")

	err = st.Delete(context.Background(), "https://elsewhere/k.png")
	assert.ErrorIs(t, err, ErrForeignURL)
}
