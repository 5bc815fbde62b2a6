package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	var fs FileStorage = NewMemoryStorage("http://localhost:8080/archive")

	_, err := fs.GeneratePresignedDownloadURL(ctx, "reports/a.json", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, fs.PutObject(ctx, "reports/a.json", "application/json", []byte(`{"ok":true}`)))
	u, err := fs.GeneratePresignedDownloadURL(ctx, "reports/a.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/archive/reports/a.json?expires=1m0s", u)

	obj, ok := fs.(*MemoryStorage).Get("reports/a.json")
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(obj.Body))

	require.NoError(t, fs.DeleteObject(ctx, "reports/a.json"))
	_, ok = fs.(*MemoryStorage).Get("reports/a.json")
	assert.False(t, ok)
}
