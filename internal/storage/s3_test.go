package storage

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// URL AND CACHE POLICY TESTS
// =============================================================================

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		key     string
		want    string
	}{
		{"cdn", "https://cdn.theglocal.in/", "media/a.jpg", "https://cdn.theglocal.in/media/a.jpg"},
		{"cdn leading slash", "https://cdn.theglocal.in", "/media/a.jpg", "https://cdn.theglocal.in/media/a.jpg"},
		{"bucket fallback", "", "media/a.jpg", "https://bucket.s3.ap-south-1.amazonaws.com/media/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(tt.baseURL, "bucket", "ap-south-1", tt.key))
		})
	}
}

func TestS3StoreURL(t *testing.T) {
	s := &S3Store{bucket: "b", region: "us-east-1", baseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/x/y.png", s.URL("x/y.png"))
}

func TestCacheControlFor(t *testing.T) {
	assert.Equal(t, "no-store", cacheControlFor("tmp-uploads/abc/0001"))
	assert.Contains(t, cacheControlFor("media/abc.jpg"), "immutable")
}

// =============================================================================
// MEMORY STORE TESTS
// =============================================================================

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Upload(ctx, "tmp-uploads/u1/0000", []byte("ab"), ""))
	require.NoError(t, m.Upload(ctx, "tmp-uploads/u1/0001", []byte("cd"), ""))
	require.NoError(t, m.Upload(ctx, "tmp-uploads/u2/0000", []byte("zz"), "text/plain"))

	keys, err := m.List(ctx, "tmp-uploads/u1/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"tmp-uploads/u1/0000", "tmp-uploads/u1/0001"}, keys)

	data, err := m.Download(ctx, "tmp-uploads/u1/0001")
	require.NoError(t, err)
	assert.Equal(t, []byte("cd"), data)
	assert.Equal(t, "text/plain", m.ContentType("tmp-uploads/u2/0000"))

	require.NoError(t, m.Delete(ctx, "tmp-uploads/u1/0000", "tmp-uploads/u1/0001", "missing"))
	assert.Equal(t, 1, m.Len())

	_, err = m.Download(ctx, "tmp-uploads/u1/0000")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreDownloadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Upload(ctx, "k", []byte("abc"), ""))

	data, err := m.Download(ctx, "k")
	require.NoError(t, err)
	data[0] = 'x'

	again, err := m.Download(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStoreInjectedFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Upload(ctx, "k", []byte("abc"), ""))

	boom := errors.New("boom")
	m.FailDownload("k", boom)
	_, err := m.Download(ctx, "k")
	assert.ErrorIs(t, err, boom)

	m.FailDeletes(boom)
	assert.ErrorIs(t, m.Delete(ctx, "k"), boom)
	assert.Equal(t, 1, m.Len())

	m.FailDeletes(nil)
	assert.NoError(t, m.Delete(ctx, "k"))
	assert.Equal(t, 0, m.Len())
}
