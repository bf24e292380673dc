package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("bug_image", filename)

	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}

	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/", &buf)

	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File["bug_image"][0]
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewImageStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	publicPath, err := store.Save(fileHeader(t, "screenshot.PNG", []byte("fake image bytes")))

	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(publicPath, PublicPrefix) {
		t.Errorf("public path %q missing %q prefix", publicPath, PublicPrefix)
	}

	if !strings.HasSuffix(publicPath, ".png") {
		t.Errorf("extension should be lowercased, got %q", publicPath)
	}

	onDisk := filepath.Join(store.Dir(), filepath.Base(publicPath))

	data, err := os.ReadFile(onDisk)

	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}

	if string(data) != "fake image bytes" {
		t.Errorf("stored content mismatch: %q", data)
	}

	if err := store.Remove(publicPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Errorf("file should be gone, stat err = %v", err)
	}
}

func TestRemoveMissingFile(t *testing.T) {
	store, err := NewImageStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	if err := store.Remove(PublicPrefix + "never-existed.png"); err != nil {
		t.Errorf("removing an absent file should not fail, got %v", err)
	}

	if err := store.Remove(""); err != nil {
		t.Errorf("removing an empty path should not fail, got %v", err)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, err := NewImageStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	if _, err := store.Save(fileHeader(t, "notes.txt", []byte("hello"))); err != ErrUnsupportedType {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store, err := NewImageStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	header := fileHeader(t, "big.png", []byte("x"))
	header.Size = MaxImageSize + 1

	if _, err := store.Save(header); err != ErrImageTooLarge {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}
