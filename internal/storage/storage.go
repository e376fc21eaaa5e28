// Package storage names and stores uploaded files. Stored paths follow
// uploads/<kind>/<entity id>_<token><ext> and are opaque to the rest of the bot.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"honeydesk/internal/domain"
)

const (
	KindTickets  = "tickets"
	KindFeedback = "feedback"
	KindProducts = "products"

	stagingDir = "incoming"
)

// Blobs moves a received upload (by transport reference) to its final path.
type Blobs interface {
	Save(ctx context.Context, ref, path string) error
}

// Path builds the stored reference for an upload.
func Path(kind string, id int64, ext string) string {
	return fmt.Sprintf("uploads/%s/%d_%s%s", kind, id, uuid.NewString(), ext)
}

// DiskStore keeps uploads under Root. Incoming files are staged first and
// moved into place when the owning record is written.
type DiskStore struct {
	Root string
}

// Stage writes r to the staging area and returns its reference.
func (d DiskStore) Stage(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ref := filepath.ToSlash(filepath.Join(stagingDir, uuid.NewString()+ext))
	full := filepath.Join(d.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", err
	}
	return ref, f.Close()
}

func (d DiskStore) Save(_ context.Context, ref, path string) error {
	src, err := d.resolve(ref)
	if err != nil {
		return err
	}
	dst, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return domain.Storage(err, "create upload dir")
	}
	if err := os.Rename(src, dst); err != nil {
		return domain.Storage(err, "store upload")
	}
	return nil
}

// Open returns a stored file for reading.
func (d DiskStore) Open(path string) (*os.File, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (d DiskStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", domain.Validation("invalid file reference")
	}
	return filepath.Join(d.Root, clean), nil
}
