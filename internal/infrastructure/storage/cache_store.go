package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/transcript-studio/internal/domain/entities"
	"github.com/johnquangdev/transcript-studio/internal/infrastructure/cache"
	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
	"github.com/johnquangdev/transcript-studio/pkg/signature"
)

const mediaKeyPrefix = "media:"

// CacheMediaStore keeps uploaded media in a cache.Store (memory or Redis) and serves it
// through signed links on this API.
type CacheMediaStore struct {
	store   cache.Store
	signer  *signature.URLSigner
	baseURL string // e.g. http://localhost:8080/v1/media
	ttl     time.Duration
}

// NewCacheMediaStore creates a cache-backed media store
func NewCacheMediaStore(store cache.Store, signer *signature.URLSigner, baseURL string, ttl time.Duration) *CacheMediaStore {
	return &CacheMediaStore{
		store:   store,
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
}

// Publish stores the media bytes and returns a signed playable URL
func (s *CacheMediaStore) Publish(ctx context.Context, key string, file *entities.MediaFile) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", usecaseErrors.ErrEmptyFile
	}

	// value layout: "<mime type>\n<bytes>"
	var buf bytes.Buffer
	buf.Grow(len(file.MIMEType) + 1 + len(file.Data))
	buf.WriteString(file.MIMEType)
	buf.WriteByte('\n')
	buf.Write(file.Data)

	if err := s.store.Set(ctx, mediaKeyPrefix+key, buf.Bytes(), s.ttl); err != nil {
		return "", fmt.Errorf("failed to store media: %w", err)
	}
	return s.signer.SignURL(s.baseURL, key, s.ttl), nil
}

// Remove deletes the media bytes
func (s *CacheMediaStore) Remove(ctx context.Context, key string) error {
	return s.store.Delete(ctx, mediaKeyPrefix+key)
}

// Open verifies a signed link and returns the media type and bytes
func (s *CacheMediaStore) Open(ctx context.Context, key, expires, sig string) (string, []byte, error) {
	if err := s.signer.Verify(key, expires, sig); err != nil {
		return "", nil, err
	}
	value, ok, err := s.store.Get(ctx, mediaKeyPrefix+key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load media: %w", err)
	}
	if !ok {
		return "", nil, usecaseErrors.ErrMediaNotFound
	}
	idx := bytes.IndexByte(value, '\n')
	if idx < 0 {
		return "", nil, usecaseErrors.ErrMediaNotFound
	}
	return string(value[:idx]), value[idx+1:], nil
}
