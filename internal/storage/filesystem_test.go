package storage

import (
	"context"
	"testing"
)

func TestFileStoreWriteReadExists(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "./images/image_1.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "images/image_1.png" {
		t.Fatalf("key = %q", key)
	}
	if !store.Exists(key) {
		t.Fatal("expected key to exist")
	}
	data, err := store.Read(context.Background(), key)
	if err != nil || string(data) != "png" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	keys, err := store.List("images")
	if err != nil || len(keys) != 1 || keys[0] != "images/image_1.png" {
		t.Fatalf("List = %v, %v", keys, err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if store.Path("../escape.png") != "" {
		t.Fatal("expected empty path for invalid key")
	}
	if store.Exists("missing.png") {
		t.Fatal("missing file reported as existing")
	}
}
