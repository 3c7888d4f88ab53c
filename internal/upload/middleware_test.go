package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartRequest(t *testing.T, withFile bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("bio", "hello"); err != nil {
		t.Fatalf("write field: %v", err)
	}

	if withFile {
		fw, err := mw.CreateFormFile("file", "resume.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, "pdf-bytes"); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSingleUploadSavesOnDemand(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	r := gin.New()

	var got StoredFile
	var present bool

	r.POST("/", SingleUpload(store, nil, "file"), func(c *gin.Context) {
		var saveErr error
		got, present, saveErr = SaveFromContext(c)
		if saveErr != nil {
			t.Fatalf("save: %v", saveErr)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, true))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body=%s", w.Code, w.Body.String())
	}

	if !present {
		t.Fatalf("pending file missing from context")
	}

	if got.OriginalName != "resume.pdf" || got.Size != int64(len("pdf-bytes")) {
		t.Fatalf("unexpected stored file: %+v", got)
	}
}

func TestSingleUploadFileIsOptional(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	r := gin.New()

	var present bool

	r.POST("/", SingleUpload(store, nil, "file"), func(c *gin.Context) {
		_, present, _ = SaveFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, false))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body=%s", w.Code, w.Body.String())
	}

	if present {
		t.Fatalf("no file was uploaded, context should be empty")
	}
}

func TestSingleUploadNothingWrittenUntilSave(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	r := gin.New()

	// a handler that rejects the form never calls SaveFromContext
	r.POST("/", SingleUpload(store, nil, "file"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, true))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("file written without a save: %v", entries)
	}
}

type failingStore struct{}

func (failingStore) Backend() string { return "disk" }

func (failingStore) Save(_ context.Context, _ *multipart.FileHeader) (StoredFile, error) {
	return StoredFile{}, io.ErrClosedPipe
}

func (failingStore) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, io.ErrClosedPipe
}

func TestSaveFromContextSurfacesStorageFailure(t *testing.T) {
	r := gin.New()

	r.POST("/", SingleUpload(failingStore{}, nil, "file"), func(c *gin.Context) {
		_, present, err := SaveFromContext(c)
		if !present {
			t.Fatalf("pending file missing from context")
		}
		if err == nil {
			t.Fatalf("want a storage error")
		}
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, true))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
}
