package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/cache"
	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
	"github.com/johnquangdev/transcript-studio/pkg/signature"
)

func TestCacheMediaStore_PublishOpenRemove(t *testing.T) {
	mem := cache.NewMemoryStore(time.Minute)
	defer mem.Close()
	s := NewCacheMediaStore(mem, signature.NewURLSigner("secret"), "http://api.test/v1/media/", time.Hour)
	ctx := context.Background()

	file := entities.NewMediaFile("a.mp3", "audio/mpeg", []byte("ID3\x03audio"))
	link, err := s.Publish(ctx, "k1", file)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/v1/media/k1", u.Path)

	mimeType, data, err := s.Open(ctx, "k1", u.Query().Get("expires"), u.Query().Get("sig"))
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mimeType)
	assert.Equal(t, file.Data, data)

	_, _, err = s.Open(ctx, "k1", u.Query().Get("expires"), "bad")
	assert.ErrorIs(t, err, usecaseErrors.ErrSignatureInvalid)

	require.NoError(t, s.Remove(ctx, "k1"))
	_, _, err = s.Open(ctx, "k1", u.Query().Get("expires"), u.Query().Get("sig"))
	assert.ErrorIs(t, err, usecaseErrors.ErrMediaNotFound)
}

func TestCacheMediaStore_RejectsEmptyFile(t *testing.T) {
	mem := cache.NewMemoryStore(time.Minute)
	defer mem.Close()
	s := NewCacheMediaStore(mem, signature.NewURLSigner("secret"), "http://api.test/v1/media", time.Hour)

	_, err := s.Publish(context.Background(), "k", &entities.MediaFile{Name: "empty.mp3"})
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyFile)
	assert.Equal(t, 0, mem.Len())
}

func TestRewriteHost(t *testing.T) {
	u, _ := url.Parse("http://minio:9000/bucket/sessions/media/k?X-Amz-Signature=abc")
	got, err := rewriteHost(u, "https://media.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/bucket/sessions/media/k?X-Amz-Signature=abc", got)
}
