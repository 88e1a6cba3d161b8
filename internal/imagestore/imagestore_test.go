package imagestore

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestStageCommitLifecycle(t *testing.T) {
	store := New(t.TempDir())

	staged, err := store.Stage(KindItem, fileHeader(t, "photo.png", []byte("png-bytes")))
	require.NoError(t, err)

	// Keeps the extension, replaces the basename.
	assert.True(t, strings.HasSuffix(staged.Filename, ".png"))
	assert.NotEqual(t, "photo.png", staged.Filename)

	// Not visible under its final name until committed.
	_, err = os.Stat(store.Path(KindItem, staged.Filename))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, staged.Commit())

	data, err := os.ReadFile(store.Path(KindItem, staged.Filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// Discard after commit is a no-op.
	staged.Discard()
	_, err = os.Stat(store.Path(KindItem, staged.Filename))
	assert.NoError(t, err)
}

func TestDiscardRemovesStagedFile(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	staged, err := store.Stage(KindUser, fileHeader(t, "avatar.jpg", []byte("jpg")))
	require.NoError(t, err)
	staged.Discard()

	entries, err := os.ReadDir(filepath.Join(root, string(KindUser)))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Commit after discard must not resurrect the file.
	assert.NoError(t, staged.Commit())
	entries, err = os.ReadDir(filepath.Join(root, string(KindUser)))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteMissingFileIsNotAnError(t *testing.T) {
	store := New(t.TempDir())
	assert.NoError(t, store.Delete(KindStorage, "never-existed.png"))
}

func TestDeleteRemovesFile(t *testing.T) {
	store := New(t.TempDir())

	staged, err := store.Stage(KindStorage, fileHeader(t, "shelf.png", []byte("x")))
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	require.NoError(t, store.Delete(KindStorage, staged.Filename))
	_, err = os.Stat(store.Path(KindStorage, staged.Filename))
	assert.True(t, os.IsNotExist(err))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("abc.png"))
	assert.False(t, IsValidName(""))
	assert.False(t, IsValidName("../etc/passwd"))
	assert.False(t, IsValidName("a/b.png"))
	assert.False(t, IsValidName(`a\b.png`))
	assert.False(t, IsValidName("."))
	assert.False(t, IsValidName(".."))
}
