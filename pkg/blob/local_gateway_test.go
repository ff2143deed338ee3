package blob

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *LocalGateway {
	t.Helper()
	g, err := NewLocalGateway(t.TempDir(), "http://localhost:3000", []byte("test-secret"), time.Minute, time.Minute)
	require.NoError(t, err)
	return g
}

func tokenFrom(t *testing.T, signed *SignedURL) string {
	t.Helper()
	u, err := url.Parse(signed.URL)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestLocalGatewayUpload(t *testing.T) {
	ctx := context.Background()
	key := "tenants/t1/documents/d1/v1"

	t.Run("upload token authorizes exactly once", func(t *testing.T) {
		g := newTestGateway(t)
		signed, err := g.IssueUploadURL(ctx, key, 1024)
		require.NoError(t, err)
		token := tokenFrom(t, signed)

		max, err := g.AuthorizeUpload(token, key)
		require.NoError(t, err)
		assert.Equal(t, int64(1024), max)

		_, err = g.AuthorizeUpload(token, key)
		assert.ErrorIs(t, err, ErrTokenUsed)
	})

	t.Run("token is bound to its key", func(t *testing.T) {
		g := newTestGateway(t)
		signed, err := g.IssueUploadURL(ctx, key, 1024)
		require.NoError(t, err)

		_, err = g.AuthorizeUpload(tokenFrom(t, signed), "tenants/t1/documents/other/v1")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("put stores and fetch returns the bytes", func(t *testing.T) {
		g := newTestGateway(t)
		written, err := g.Put(ctx, key, strings.NewReader("hello blob"), 1024)
		require.NoError(t, err)
		assert.Equal(t, int64(10), written)

		exists, err := g.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		size, err := g.Stat(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(10), size)

		rc, err := g.Fetch(ctx, key)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello blob", string(data))
	})

	t.Run("put rejects oversize payloads", func(t *testing.T) {
		g := newTestGateway(t)
		_, err := g.Put(ctx, key, strings.NewReader("way too many bytes"), 5)
		assert.ErrorIs(t, err, ErrTooLarge)

		exists, _ := g.Exists(ctx, key)
		assert.False(t, exists)
	})

	t.Run("path traversal keys are rejected", func(t *testing.T) {
		g := newTestGateway(t)
		_, err := g.IssueUploadURL(ctx, "../etc/passwd", 10)
		assert.Error(t, err)
	})
}

func TestLocalGatewayDownload(t *testing.T) {
	ctx := context.Background()
	key := "tenants/t1/documents/d1/v1"

	t.Run("download url requires an existing object", func(t *testing.T) {
		g := newTestGateway(t)
		_, err := g.IssueDownloadURL(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("download token validates and may be reused", func(t *testing.T) {
		g := newTestGateway(t)
		_, err := g.Put(ctx, key, strings.NewReader("content"), 0)
		require.NoError(t, err)

		signed, err := g.IssueDownloadURL(ctx, key)
		require.NoError(t, err)
		token := tokenFrom(t, signed)

		require.NoError(t, g.AuthorizeDownload(token, key))
		require.NoError(t, g.AuthorizeDownload(token, key))
		assert.ErrorIs(t, g.AuthorizeDownload(token, "other/key"), ErrInvalidToken)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		g := newTestGateway(t)
		_, err := g.Put(ctx, key, strings.NewReader("content"), 0)
		require.NoError(t, err)

		require.NoError(t, g.Remove(ctx, key))
		require.NoError(t, g.Remove(ctx, key))

		exists, _ := g.Exists(ctx, key)
		assert.False(t, exists)
	})
}
