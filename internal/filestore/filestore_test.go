package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/config"
)

func TestLocalStoreSaveOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	payload := []byte("%PDF-1.4 test")
	require.NoError(t, store.Save(context.Background(), "doc.pdf", bytes.NewReader(payload), int64(len(payload))))

	rc, err := store.Open(context.Background(), "doc.pdf")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	for _, key := range []string{"", "../x", "a/b", `a\b`} {
		require.Error(t, store.Save(context.Background(), key, bytes.NewReader(nil), 0), key)
	}
	_, err = store.Open(context.Background(), "../etc")
	require.Error(t, err)
}

func TestLocalStoreShortWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	err = store.Save(context.Background(), "doc.pdf", bytes.NewReader([]byte("abc")), 10)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "doc.pdf"))
	require.True(t, os.IsNotExist(statErr))
}

func TestNewStore(t *testing.T) {
	store, err := New(config.FileStoreConfig{})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = New(config.FileStoreConfig{Type: "none"})
	require.NoError(t, err)
	require.Nil(t, store)

	_, err = New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)

	_, err = New(config.FileStoreConfig{Type: "local"})
	require.Error(t, err)

	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"endpoint": "minio:9000"}})
	require.Error(t, err)
}

func TestS3StoreConstruct(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{
		"endpoint":   "minio:9000",
		"bucket":     "docs",
		"secret_id":  "id",
		"secret_key": "key",
		"prefix":     "/uploads/",
	}})
	require.NoError(t, err)
	require.Equal(t, "s3", store.Type())
	s := store.(*s3Store)
	require.Equal(t, "uploads/doc.pdf", s.objectKey("doc.pdf"))
	require.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	require.Equal(t, "https://minio:9000", endpointURL("minio:9000", true))
	require.Equal(t, "http://x:1", endpointURL("http://x:1", true))
}
