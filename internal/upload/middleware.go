package upload

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobhubhq/jobhub/internal/observability"
)

const ctxPendingUploadKey = "upload.pending"

type pendingUpload struct {
	fh    *multipart.FileHeader
	store Store
	prom  *observability.Prom
}

// SingleUpload accepts zero-or-one file from the named multipart field and
// stashes it on the request context without persisting it. The handler calls
// SaveFromContext once the rest of the form has validated, so a rejected
// request never leaves a file behind.
func SingleUpload(store Store, prom *observability.Prom, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile(field)

		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				// the file is optional on every eligible route
				c.Next()
				return
			}

			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "invalid_request",
					"message": "Malformed file upload",
				},
			})
			return
		}

		c.Set(ctxPendingUploadKey, pendingUpload{fh: fh, store: store, prom: prom})
		c.Next()
	}
}

// SaveFromContext persists the request's pending file, if any. The bool
// reports whether the request carried a file at all; a true/error pair means
// the destination was unwritable and the request must fail before any record
// is written.
func SaveFromContext(c *gin.Context) (StoredFile, bool, error) {
	v, ok := c.Get(ctxPendingUploadKey)

	if !ok {
		return StoredFile{}, false, nil
	}

	p, ok := v.(pendingUpload)

	if !ok {
		return StoredFile{}, false, nil
	}

	stored, err := p.store.Save(c.Request.Context(), p.fh)

	if err != nil {
		if p.prom != nil {
			p.prom.UploadsTotal.WithLabelValues(p.store.Backend(), "error").Inc()
		}

		return StoredFile{}, true, err
	}

	if p.prom != nil {
		p.prom.UploadsTotal.WithLabelValues(p.store.Backend(), "ok").Inc()
	}

	return stored, true, nil
}
