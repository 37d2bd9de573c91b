package blobsvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func TestDiskStoreUpload(t *testing.T) {
	root := t.TempDir()
	store := NewDiskStore(root, "http://localhost:8000/media/", nopLogger{})

	url, err := store.Upload(context.Background(), "facilities", "campus map.PNG", strings.NewReader("fake png bytes"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	if !strings.HasPrefix(url, "http://localhost:8000/media/facilities/") {
		t.Errorf("Upload() url = %q, want media/facilities prefix", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("Upload() url = %q, want lowercased .png extension", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	content, err := os.ReadFile(filepath.Join(root, "facilities", name))
	if err != nil {
		t.Fatalf("reading stored blob: %v", err)
	}
	if string(content) != "fake png bytes" {
		t.Errorf("stored blob = %q", content)
	}

	// same original filename must not collide
	url2, err := store.Upload(context.Background(), "facilities", "campus map.PNG", strings.NewReader("other"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if url2 == url {
		t.Error("Upload() reused the same name for two uploads")
	}
}

func TestDiskStoreUploadError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(root, []byte("file in the way"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDiskStore(root, "http://localhost:8000/media", nopLogger{})
	if _, err := store.Upload(context.Background(), "spaces", "x.jpg", strings.NewReader("x")); err != ErrUpload {
		t.Errorf("Upload() error = %v, want ErrUpload", err)
	}
}
