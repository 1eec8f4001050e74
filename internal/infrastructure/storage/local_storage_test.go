package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/pkg/errors"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	name := ObjectName("chat/", "image/png", now)
	assert.True(t, strings.HasPrefix(name, "chat/"))
	assert.True(t, strings.HasSuffix(name, "-20240301100000.png"))

	assert.True(t, strings.HasPrefix(ObjectName("", "image/jpeg", now), "uploads/"))
	assert.True(t, strings.HasSuffix(ObjectName("x", "application/x-unknown-thing", now), ".bin"))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/uploads/")
	require.NoError(t, err)

	res, err := s.UploadFile(context.Background(), strings.NewReader("fake image"), "image/png", "chat")
	require.NoError(t, err)
	assert.Equal(t, int64(len("fake image")), res.Size)
	assert.Equal(t, "/uploads/"+res.ObjectName, res.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(res.ObjectName)))
	require.NoError(t, err)
	assert.Equal(t, "fake image", string(data))

	require.NoError(t, s.DeleteFile(context.Background(), res.URL))
	err = s.DeleteFile(context.Background(), res.ObjectName)
	assert.True(t, errors.IsNotFound(err))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	err = s.DeleteFile(context.Background(), "../../etc/passwd")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
