package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func newFSStore(t *testing.T) *FilesystemStore {
	t.Helper()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return store
}

func TestFilesystemPutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	info, err := store.Put(ctx, "archives/x/export.csv", strings.NewReader("id,field\n"), PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" || info.Size != int64(len("id,field\n")) {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(ctx, "archives/x/export.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "id,field\n" {
		t.Fatalf("data = %q", data)
	}
	if got.ETag != info.ETag || got.ContentType != "text/csv" {
		t.Fatalf("head info = %+v", got)
	}
}

func TestFilesystemPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), PutOptions{}); err == nil {
		t.Fatal("expected conflict on existing key")
	}
}

func TestFilesystemRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	for _, key := range []string{"", "../escape", "/abs/path", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestFilesystemDeleteAndList(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	for _, key := range []string{"archives/1/export.json", "archives/1/export.csv", "scratch/n"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "archives/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "archives/1/export.csv" || infos[1].Key != "archives/1/export.json" {
		t.Fatalf("infos = %+v", infos)
	}

	deleted, err := store.Delete(ctx, "archives/1/export.json")
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "archives/1/export.json")
	if err != nil || deleted {
		t.Fatalf("second delete = %v, %v", deleted, err)
	}
}

func TestFilesystemPresignGETOnly(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)
	url, err := store.PresignURL(ctx, "k", SignedURLOptions{})
	if err != nil || !strings.HasPrefix(url, "http://local.blob/") {
		t.Fatalf("url = %q err = %v", url, err)
	}
	if _, err := store.PresignURL(ctx, "k", SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("expected PUT presign rejection")
	}
}
