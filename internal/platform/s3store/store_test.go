package s3store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(endpoint string) *s3.Client {
	return s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
}

func TestSaveImage(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := New(testClient(server.URL), "recipes", "https://cdn.example.com/")
	require.NoError(t, err)

	url, err := store.SaveImage(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/recipes/"+KeyPrefix), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ".jpg"), gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, []byte("jpeg-bytes"), gotBody)

	key := strings.TrimPrefix(gotPath, "/recipes/")
	assert.Equal(t, "https://cdn.example.com/"+key, url)
}

func TestSaveImage_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer server.Close()

	store, err := New(testClient(server.URL), "recipes", "")
	require.NoError(t, err)

	_, err = store.SaveImage(context.Background(), []byte("x"), "image/png")
	assert.ErrorContains(t, err, "failed to upload image")
}

func TestSaveImage_Empty(t *testing.T) {
	store, err := New(testClient("http://127.0.0.1:1"), "recipes", "")
	require.NoError(t, err)

	_, err = store.SaveImage(context.Background(), nil, "image/png")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(nil, "", "")
	assert.Error(t, err)

	store, err := New(nil, "recipes", "")
	require.NoError(t, err)
	assert.Equal(t, "https://recipes.s3.amazonaws.com", store.baseURL)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("image/png"))
	assert.Equal(t, ".webp", extension("image/webp"))
	assert.Equal(t, ".jpg", extension("image/jpeg"))
	assert.Equal(t, ".jpg", extension(""))
}
