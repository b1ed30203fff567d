package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFSImageStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewFSImageStore(dir, "/uploads/")
	ctx := context.Background()

	name := "1700000000000-moj-post.jpg"
	if err := store.UploadImage(ctx, name, []byte("jpegdata")); err != nil {
		t.Fatalf("UploadImage: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil || string(data) != "jpegdata" {
		t.Errorf("Expected stored bytes, got %q, %v", data, err)
	}

	if got := store.PublicURL(name); got != "/uploads/"+name {
		t.Errorf("Unexpected public url %q", got)
	}

	if err := store.UploadImage(ctx, name, []byte("other")); err == nil {
		t.Error("Expected upload over an existing object to fail")
	}

	if err := store.DeleteImage(ctx, name); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}
	if err := store.DeleteImage(ctx, name); err != nil {
		t.Errorf("Expected deleting a missing object to succeed, got %v", err)
	}
}

func TestFSImageStoreRejectsTraversal(t *testing.T) {
	store := NewFSImageStore(t.TempDir(), "/uploads")

	for _, name := range []string{"", "../escape.jpg", "a/b.jpg", ".hidden"} {
		if err := store.UploadImage(context.Background(), name, []byte("x")); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}
