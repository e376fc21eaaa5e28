package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/domain"
	"honeydesk/internal/storage"
)

func TestPathLayout(t *testing.T) {
	p := storage.Path(storage.KindTickets, 12, ".jpg")
	assert.Regexp(t, regexp.MustCompile(`^uploads/tickets/12_[0-9a-f-]{36}\.jpg$`), p)
	assert.NotEqual(t, p, storage.Path(storage.KindTickets, 12, ".jpg"))
}

func TestStageAndSave(t *testing.T) {
	root := t.TempDir()
	d := storage.DiskStore{Root: root}

	ref, err := d.Stage("receipt.PDF", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "incoming/"))
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	path := storage.Path(storage.KindFeedback, 3, ".pdf")
	require.NoError(t, d.Save(context.Background(), ref, path))

	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(b))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsTraversal(t *testing.T) {
	d := storage.DiskStore{Root: t.TempDir()}
	err := d.Save(context.Background(), "../../etc/passwd", "uploads/tickets/1_x.txt")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaveMissingRefIsStorageError(t *testing.T) {
	d := storage.DiskStore{Root: t.TempDir()}
	err := d.Save(context.Background(), "incoming/nope.jpg", "uploads/tickets/1_x.jpg")
	assert.ErrorIs(t, err, domain.ErrStorage)
}
