package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func makeFileHeader(t *testing.T, field, filename, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, fh, err := req.FormFile(field)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}

	return fh
}

func TestDiskStoreSaveAndOpen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	at := time.UnixMilli(1700000000000)
	store.now = func() time.Time { return at }

	fh := makeFileHeader(t, "file", "resume.pdf", "pdf-bytes")

	stored, err := store.Save(context.Background(), fh)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if stored.Name != "1700000000000-resume.pdf" {
		t.Fatalf("stored name %q, want millisecond-timestamp prefix", stored.Name)
	}
	if stored.OriginalName != "resume.pdf" {
		t.Fatalf("original name %q", stored.OriginalName)
	}

	rc, err := store.Open(context.Background(), stored.Ref)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(got) != "pdf-bytes" {
		t.Fatalf("round trip content %q", got)
	}
}

func TestDiskStoreUniqueNamesAcrossTime(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	at := time.UnixMilli(1700000000000)
	store.now = func() time.Time { return at }

	first, err := store.Save(context.Background(), makeFileHeader(t, "file", "resume.pdf", "v1"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	at = at.Add(time.Millisecond)

	second, err := store.Save(context.Background(), makeFileHeader(t, "file", "resume.pdf", "v2"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	if first.Name == second.Name {
		t.Fatalf("same original name at different times must get distinct stored names")
	}
}

func TestDiskStoreStripsDirectoryComponents(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	stored, err := store.Save(context.Background(), makeFileHeader(t, "file", "../../etc/passwd", "x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if strings.Contains(stored.Name, "/") || strings.Contains(stored.Name, "..") {
		t.Fatalf("stored name %q leaks path components", stored.Name)
	}
}

func TestDiskStoreOpenRejectsEscapes(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Open(context.Background(), "../outside.txt"); err == nil {
		t.Fatalf("escaping ref must be rejected")
	}
}
