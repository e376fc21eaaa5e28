package services

import (
	"context"

	"honeydesk/internal/repos"
	"honeydesk/internal/storage"
)

// Upload is a file received from the transport, not yet stored.
type Upload struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// attach returns a repos.Attach that moves the upload into place once the
// owning row has an id. A nil upload attaches nothing.
func attach(ctx context.Context, blobs storage.Blobs, kind string, up *Upload) repos.Attach {
	if up == nil {
		return nil
	}
	return func(id int64) (string, error) {
		path := storage.Path(kind, id, up.Ext)
		if err := blobs.Save(ctx, up.Ref, path); err != nil {
			return "", err
		}
		return path, nil
	}
}
