package upload

import (
	"context"
	"io"
	"mime/multipart"
)

// StoredFile is the reference handed to downstream handlers and persisted on
// the user record.
type StoredFile struct {
	Name         string `json:"name"`         // generated storage name
	Ref          string `json:"ref"`          // path (disk) or object key (s3)
	OriginalName string `json:"originalName"` // as uploaded
	Size         int64  `json:"size"`
}

// Store persists one uploaded file per call under a collision-resistant
// name. Callers must assume arbitrary uploaded content.
type Store interface {
	Backend() string
	Save(ctx context.Context, fh *multipart.FileHeader) (StoredFile, error)

	// Open streams a previously stored file back (worker side).
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
