package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKey(t *testing.T) {
	key := AttachmentKey("bug-id", "crash log.txt")
	assert.True(t, strings.HasPrefix(key, "attachments/bug-id/"))
	assert.True(t, strings.HasSuffix(key, "_crash_log.txt"), "spaces replaced in %q", key)

	// Path components of the original name are stripped
	key = AttachmentKey("bug-id", "../../etc/passwd")
	assert.True(t, strings.HasSuffix(key, "_passwd"))

	// Keys are collision-free per call
	assert.NotEqual(t, AttachmentKey("bug-id", "a.txt"), AttachmentKey("bug-id", "a.txt"))
}

func TestLocalStorage(t *testing.T) {
	store := NewLocalStorage(t.TempDir())
	assert.True(t, store.IsConfigured())

	ctx := context.Background()
	content := "screenshot bytes"

	result, err := store.UploadReader(ctx, strings.NewReader(content), "attachments/b1/x_shot.png", "image/png", int64(len(content)))
	assert.NoError(t, err)
	assert.Equal(t, "attachments/b1/x_shot.png", result.Key)
	assert.Equal(t, int64(len(content)), result.FileSize)
	assert.Equal(t, "x_shot.png", result.FileName)

	rc, _, err := store.Get(ctx, result.Key)
	assert.NoError(t, err)
	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	rc.Close()
	assert.Equal(t, content, string(data))

	assert.NoError(t, store.Delete(ctx, result.Key))
	_, _, err = store.Get(ctx, result.Key)
	assert.Error(t, err)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, result.Key))
}
